//go:build !manifold

package manifold

import (
	"errors"
	"strings"
	"testing"
)

func TestStubUnavailable(t *testing.T) {
	k, err := New()
	if k != nil {
		t.Fatalf("New() = %v, want nil kernel without the manifold tag", k)
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("New() error = %v, want ErrUnavailable", err)
	}
	if !strings.Contains(err.Error(), "-tags=manifold") {
		t.Errorf("error %q does not say how to enable the kernel", err)
	}
}
