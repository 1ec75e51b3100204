// Package backends probes which triangulation backends are compiled in and
// selects one for a configured kind.
package backends

import (
	"github.com/chazu/ndview/pkg/logging"
	"github.com/chazu/ndview/pkg/triangulate"
	"github.com/chazu/ndview/pkg/triangulate/bermuda"
	"github.com/chazu/ndview/pkg/triangulate/delaunay"
	"github.com/chazu/ndview/pkg/triangulate/partseg"
	"github.com/chazu/ndview/pkg/triangulate/pure"
)

type constructor func() (triangulate.Backend, error)

var registry = map[triangulate.Kind]constructor{
	triangulate.KindPure:     func() (triangulate.Backend, error) { return pure.New(), nil },
	triangulate.KindTriangle: func() (triangulate.Backend, error) { return delaunay.New(), nil },
	triangulate.KindBermuda:  bermuda.New,
	triangulate.KindPartSeg:  partseg.New,
}

// Status describes one backend's availability.
type Status struct {
	Kind      triangulate.Kind `json:"kind"`
	Available bool             `json:"available"`
	Reason    string           `json:"reason,omitempty"`
}

// Available lists every concrete backend in preference order.
func Available() []Status {
	out := make([]Status, 0, len(triangulate.Kinds))
	for _, k := range triangulate.Kinds {
		s := Status{Kind: k}
		if _, err := registry[k](); err != nil {
			s.Reason = err.Error()
		} else {
			s.Available = true
		}
		out = append(out, s)
	}
	return out
}

// Select returns the backend for kind. fastest_available walks the
// preference order; an explicit kind that is not compiled in falls back to
// pure with a warning. Select never fails.
func Select(kind triangulate.Kind) triangulate.Backend {
	log := logging.WithComponent("triangulate")
	if kind == triangulate.KindFastest {
		for _, k := range triangulate.Kinds {
			if b, err := registry[k](); err == nil {
				log.Debug("backend selected", "requested", kind, "backend", b.Name())
				return b
			}
		}
		return pure.New()
	}
	ctor, ok := registry[kind]
	if !ok {
		log.Warn("unknown backend, using pure", "requested", kind)
		return pure.New()
	}
	b, err := ctor()
	if err != nil {
		log.Warn("backend unavailable, using pure", "requested", kind, "err", err)
		return pure.New()
	}
	log.Debug("backend selected", "requested", kind, "backend", b.Name())
	return b
}

// SelectName parses a configuration value and selects a backend.
func SelectName(name string) (triangulate.Backend, error) {
	kind, err := triangulate.ParseKind(name)
	if err != nil {
		return nil, err
	}
	return Select(kind), nil
}
