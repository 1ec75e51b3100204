package shapes

import (
	"fmt"
	"math"
	"slices"

	"github.com/dhconnelly/rtreego"
)

const minExtent = 1e-9

// Index answers hit queries over the displayed bounding boxes of a set of
// shapes.
type Index struct {
	tree  *rtreego.Rtree
	items []*item
}

type item struct {
	id    int
	shape *Shape
	rect  rtreego.Rect
}

func (it *item) Bounds() rtreego.Rect { return it.rect }

func boxRect(lo, hi []float64) (rtreego.Rect, error) {
	lengths := make([]float64, len(lo))
	for i := range lo {
		lengths[i] = math.Max(hi[i]-lo[i], minExtent)
	}
	return rtreego.NewRect(rtreego.Point(slices.Clone(lo)), lengths)
}

// NewIndex indexes shapes by position in the slice. Every shape must have
// two displayed dims.
func NewIndex(shapes []*Shape) (*Index, error) {
	ix := &Index{tree: rtreego.NewTree(2, 8, 32)}
	for i, s := range shapes {
		if s.NDisplay() != 2 {
			return nil, fmt.Errorf("shapes: index shape %d: %w", i, ErrNDisplay)
		}
		bb := s.BoundingBox()
		r, err := boxRect(bb[0], bb[1])
		if err != nil {
			return nil, fmt.Errorf("shapes: index shape %d: %w", i, err)
		}
		it := &item{id: i, shape: s, rect: r}
		ix.items = append(ix.items, it)
		ix.tree.Insert(it)
	}
	return ix, nil
}

// Len returns the number of indexed shapes.
func (ix *Index) Len() int { return ix.tree.Size() }

// Query returns the sorted ids of shapes whose bounding box intersects
// the box [lo, hi].
func (ix *Index) Query(lo, hi []float64) ([]int, error) {
	r, err := boxRect(lo, hi)
	if err != nil {
		return nil, err
	}
	var ids []int
	for _, sp := range ix.tree.SearchIntersect(r) {
		ids = append(ids, sp.(*item).id)
	}
	slices.Sort(ids)
	return ids, nil
}

// At returns the topmost shape containing the displayed point p. Higher
// z-index wins, then the later shape.
func (ix *Index) At(p []float64) (int, bool) {
	if len(p) != 2 {
		return 0, false
	}
	best := -1
	for _, sp := range ix.tree.SearchIntersect(rtreego.Point(slices.Clone(p)).ToRect(minExtent)) {
		it := sp.(*item)
		if !it.shape.Contains(p) {
			continue
		}
		if best < 0 || above(it, ix.items[best]) {
			best = it.id
		}
	}
	return best, best >= 0
}

func above(a, b *item) bool {
	if a.shape.ZIndex() != b.shape.ZIndex() {
		return a.shape.ZIndex() > b.shape.ZIndex()
	}
	return a.id > b.id
}
