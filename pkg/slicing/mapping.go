package slicing

import (
	"github.com/samber/lo"
)

// WorldToLayerDims converts a display order over ndimWorld world axes into
// the order over a layer's ndim axes, which are aligned with the last ndim
// world axes. Axes the world lacks are placed first; axes the layer lacks
// are dropped. Relative order of shared axes is kept.
func WorldToLayerDims(worldDims []int, ndimWorld, ndim int) []int {
	offset := ndimWorld - ndim
	switch {
	case offset == 0:
		return append([]int(nil), worldDims...)
	case offset < 0:
		shifted := lo.Map(worldDims, func(d int, _ int) int { return d - offset })
		return append(lo.Range(-offset), shifted...)
	default:
		kept := lo.Filter(worldDims, func(d int, _ int) bool { return d >= offset })
		return lo.Map(kept, func(d int, _ int) int { return d - offset })
	}
}

// DimsSource is the read-only view of the dims model needed to build a
// slice input.
type DimsSource interface {
	NDim() int
	NDisplay() int
	Order() []int
	WorldSlice() ThickNDSlice
}

// MakeSliceInput builds the slice input for a layer with ndim axes from the
// current dims state.
func MakeSliceInput(d DimsSource, ndim int) SliceInput {
	order := WorldToLayerDims(d.Order(), d.NDim(), ndim)
	if len(order) > ndim {
		order = order[len(order)-ndim:]
	}
	return SliceInput{
		NDisplay:   d.NDisplay(),
		WorldSlice: d.WorldSlice().Last(ndim),
		Order:      order,
	}
}
