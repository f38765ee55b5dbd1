// Package kernel defines the triangle mesh shared by the tessellation and
// export layers, and the boolean kernel interface. Implementations (csg,
// sdfx, manifold) provide mesh subtraction behind this interface so the
// backend can be swapped without touching the rest of the system.
package kernel

import "errors"

// ErrEmptyResult is returned by a kernel when a boolean operation leaves
// nothing behind.
var ErrEmptyResult = errors.New("kernel: empty result")

// Kernel is the abstract boolean kernel.
type Kernel interface {
	// Name identifies the backend in logs and configuration.
	Name() string

	// Difference returns a minus b. Inputs are not modified.
	Difference(a, b *Mesh) (*Mesh, error)
}
