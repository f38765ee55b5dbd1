//go:build manifold

// Package manifold provides a CGo-based boolean kernel binding to the
// Manifold library (https://github.com/elalish/manifold). Manifold
// guarantees manifold output, so subtraction results stay watertight.
//
// This package requires the Manifold C library (manifoldc) to be installed.
// Build with: go build -tags=manifold
package manifold

/*
#cgo CFLAGS: -I/usr/local/include
#cgo LDFLAGS: -L/usr/local/lib -lmanifoldc

#include <stdlib.h>
#include <manifold/manifoldc.h>
*/
import "C"

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/chazu/lintel/pkg/kernel"
)

// Compile-time interface check.
var _ kernel.Kernel = (*ManifoldKernel)(nil)

// solid owns a C ManifoldManifold pointer.
type solid struct {
	ptr *C.ManifoldManifold
}

// newSolid wraps a C ManifoldManifold pointer with Go-side finalizer
// for automatic memory management.
func newSolid(ptr *C.ManifoldManifold) *solid {
	s := &solid{ptr: ptr}
	runtime.SetFinalizer(s, func(s *solid) {
		if s.ptr != nil {
			C.manifold_delete_manifold(s.ptr)
			s.ptr = nil
		}
	})
	return s
}

// ManifoldKernel implements kernel.Kernel using the Manifold C library.
type ManifoldKernel struct{}

// New creates a new ManifoldKernel.
func New() (kernel.Kernel, error) {
	return &ManifoldKernel{}, nil
}

// Name implements kernel.Kernel.
func (k *ManifoldKernel) Name() string { return "manifold" }

// Difference returns the boolean difference (a minus b).
func (k *ManifoldKernel) Difference(a, b *kernel.Mesh) (*kernel.Mesh, error) {
	if a.IsEmpty() {
		return nil, kernel.ErrEmptyResult
	}
	if b.IsEmpty() {
		return a.Clone(), nil
	}

	sa, err := fromMesh(a)
	if err != nil {
		return nil, fmt.Errorf("manifold: host: %w", err)
	}
	sb, err := fromMesh(b)
	if err != nil {
		return nil, fmt.Errorf("manifold: tool: %w", err)
	}

	alloc := C.manifold_alloc_manifold()
	diff := newSolid(C.manifold_difference(alloc, sa.ptr, sb.ptr))
	runtime.KeepAlive(sa)
	runtime.KeepAlive(sb)

	if C.manifold_is_empty(diff.ptr) != 0 {
		return nil, kernel.ErrEmptyResult
	}
	out, err := toMesh(diff)
	if err != nil {
		return nil, err
	}
	out.PartName = a.PartName
	return out, nil
}

// fromMesh imports a mesh through MeshGL. Vertices are welded first since
// Manifold needs shared indices to see a closed surface.
func fromMesh(m *kernel.Mesh) (*solid, error) {
	w := m.Weld()
	if w.IsEmpty() {
		return nil, kernel.ErrEmptyResult
	}

	props := make([]float32, len(w.Vertices))
	for i, v := range w.Vertices {
		props[i] = float32(v)
	}
	indices := append([]uint32(nil), w.Indices...)

	meshAlloc := C.manifold_alloc_meshgl()
	meshGL := C.manifold_meshgl(meshAlloc,
		(*C.float)(unsafe.Pointer(&props[0])),
		C.size_t(w.VertexCount()),
		C.size_t(3),
		(*C.uint32_t)(unsafe.Pointer(&indices[0])),
		C.size_t(w.TriangleCount()),
	)
	defer C.manifold_delete_meshgl(meshGL)

	alloc := C.manifold_alloc_manifold()
	s := newSolid(C.manifold_of_meshgl(alloc, meshGL))
	if status := C.manifold_status(s.ptr); status != C.MANIFOLD_NO_ERROR {
		return nil, fmt.Errorf("not a manifold (status %d)", int(status))
	}
	return s, nil
}

// toMesh extracts a triangle mesh from the solid using Manifold's MeshGL
// format. Only positions are read; normals are recomputed.
func toMesh(s *solid) (*kernel.Mesh, error) {
	meshAlloc := C.manifold_alloc_meshgl()
	meshGL := C.manifold_get_meshgl(meshAlloc, s.ptr)
	defer C.manifold_delete_meshgl(meshGL)

	numVert := int(C.manifold_meshgl_num_vert(meshGL))
	numTri := int(C.manifold_meshgl_num_tri(meshGL))
	if numVert == 0 || numTri == 0 {
		return nil, kernel.ErrEmptyResult
	}

	// MeshGL stores vertex properties in a flat float array. The first 3
	// of numProp properties are always position (x, y, z).
	numProp := int(C.manifold_meshgl_num_prop(meshGL))
	propData := make([]float32, numVert*numProp)
	C.manifold_meshgl_vert_properties(
		(*C.float)(unsafe.Pointer(&propData[0])),
		meshGL,
	)

	indices := make([]uint32, numTri*3)
	C.manifold_meshgl_tri_verts(
		(*C.uint32_t)(unsafe.Pointer(&indices[0])),
		meshGL,
	)

	vertices := make([]float64, numVert*3)
	for i := 0; i < numVert; i++ {
		base := i * numProp
		vertices[i*3+0] = float64(propData[base+0])
		vertices[i*3+1] = float64(propData[base+1])
		vertices[i*3+2] = float64(propData[base+2])
	}

	mesh := &kernel.Mesh{Vertices: vertices, Indices: indices}
	if mesh.VertexCount() != numVert {
		return nil, fmt.Errorf("manifold: vertex count mismatch: got %d, expected %d",
			mesh.VertexCount(), numVert)
	}
	mesh.ComputeNormals()
	return mesh, nil
}
