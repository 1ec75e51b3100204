package layer

import (
	"fmt"
	"math"
	"slices"

	"github.com/chazu/ndview/pkg/extent"
)

var _ Layer = (*Tracks)(nil)

// Tracks holds time-indexed vertices of object tracks. Each row is
// [track id, t, coords...]; the layer axes are t and the coordinates.
type Tracks struct {
	base   Base
	ndim   int
	ids    []int
	coords [][]float64
	tail   float64
	head   float64

	view []int
}

// NewTracks builds a tracks layer. tail and head are the time spans shown
// behind and ahead of the current time point.
func NewTracks(rows [][]float64, tail, head float64, opts Options) (*Tracks, error) {
	tr := &Tracks{tail: tail, head: head}
	if err := tr.setData(rows); err != nil {
		return nil, err
	}
	if err := Initialize(tr, opts); err != nil {
		return nil, err
	}
	return tr, nil
}

func (tr *Tracks) setData(rows [][]float64) error {
	ndim := 3
	if len(rows) > 0 {
		ndim = len(rows[0]) - 1
	}
	if ndim < 3 {
		return fmt.Errorf("%w: track rows need id, t and at least 2 coordinates", ErrLayerData)
	}
	tr.ids = make([]int, len(rows))
	tr.coords = make([][]float64, len(rows))
	for i, r := range rows {
		if len(r) != ndim+1 {
			return fmt.Errorf("%w: track row %d has %d columns, want %d", ErrLayerData, i, len(r), ndim+1)
		}
		tr.ids[i] = int(r[0])
		tr.coords[i] = slices.Clone(r[1:])
	}
	tr.ndim = ndim
	return nil
}

func (tr *Tracks) Base() *Base { return &tr.base }
func (tr *Tracks) Kind() Kind { return KindTracks }
func (tr *Tracks) NDim() int { return tr.ndim }
func (tr *Tracks) Len() int { return len(tr.ids) }
func (tr *Tracks) IDs() []int { return slices.Clone(tr.ids) }
func (tr *Tracks) Coords() [][]float64 { return cloneRows(tr.coords) }
func (tr *Tracks) ViewIndices() []int { return slices.Clone(tr.view) }

func (tr *Tracks) DataExtent() [2][]float64 { return extent.OfPoints(tr.coords, tr.ndim) }

func (tr *Tracks) AugmentedDataExtent() [2][]float64 { return tr.DataExtent() }

// UpdateDisplayedData keeps the vertices inside the current time window
// and the thick slice of any other not-displayed axis.
func (tr *Tracks) UpdateDisplayedData() {
	in := tr.base.sliceInput
	ds := tr.base.DataSlice()
	timeSliced := slices.Contains(in.NotDisplayed(), 0) && !math.IsNaN(ds.Point[0])

	rest := ds.Copy()
	rest.Point[0] = math.NaN()
	candidates := inSlice(tr.coords, in, rest)
	tr.view = tr.view[:0]
	for _, i := range candidates {
		if timeSliced {
			t := tr.coords[i][0]
			if t < ds.Point[0]-tr.tail || t > ds.Point[0]+tr.head {
				continue
			}
		}
		tr.view = append(tr.view, i)
	}
}

// ValueAt returns the track id of the displayed vertex within half a data
// unit of the world position.
func (tr *Tracks) ValueAt(world []float64) (Value, bool) {
	pos, err := tr.base.WorldToData(world)
	if err != nil {
		return Value{}, false
	}
	disp := tr.base.sliceInput.Displayed()
	for _, i := range tr.view {
		if dist(tr.coords[i], pos, disp) <= 0.5 {
			return Value{Kind: KindTracks, Index: tr.ids[i], Data: tr.coords[i][0]}, true
		}
	}
	return Value{}, false
}
