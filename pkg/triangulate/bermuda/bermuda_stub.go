//go:build !bermuda

// Package bermuda provides the first accelerated triangulation backend.
// When the "bermuda" build tag is not set, this stub is compiled instead
// and New returns an error.
//
// Build with: go build -tags=bermuda
package bermuda

import (
	"errors"

	"github.com/chazu/ndview/pkg/triangulate"
)

// Available reports whether the backend is compiled in.
const Available = false

// New returns an error indicating bermuda is not available.
func New() (triangulate.Backend, error) {
	return nil, errors.New("bermuda backend not available: build with -tags=bermuda")
}
