//go:build !partsegcore

// Package partseg provides the second accelerated triangulation backend.
// When the "partsegcore" build tag is not set, this stub is compiled
// instead and New returns an error.
//
// Build with: go build -tags=partsegcore
package partseg

import (
	"errors"

	"github.com/chazu/ndview/pkg/triangulate"
)

// Available reports whether the backend is compiled in.
const Available = false

// New returns an error indicating partseg is not available.
func New() (triangulate.Backend, error) {
	return nil, errors.New("partsegcore backend not available: build with -tags=partsegcore")
}
