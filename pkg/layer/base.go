package layer

import (
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/ndview/pkg/extent"
	"github.com/chazu/ndview/pkg/geometry"
	"github.com/chazu/ndview/pkg/logging"
	"github.com/chazu/ndview/pkg/slicing"
	"github.com/chazu/ndview/pkg/transform"
)

// Base is the state every layer shares. A variant holds a Base and
// returns it from Base(); the base calls back into the variant for its
// data extent and displayed data.
type Base struct {
	ID      uuid.UUID
	Name    string
	Visible bool

	owner     Layer
	ndim      int
	chain     *transform.Chain
	physical  *transform.CompositeAffine
	seen      uint64
	seenChain uint64
	stale     bool
	extent    *extent.Cache

	sliceInput  slicing.SliceInput
	sliceCount  int
	scaleFactor float64

	multiscale   bool
	levelShapes  [][]int
	downsample   [][]float64
	dataLevel    int
	cornerPixels [2][]int
}

func (b *Base) bind(owner Layer, opts Options) error {
	b.owner = owner
	b.ID = uuid.New()
	b.Name = opts.Name
	b.Visible = !opts.Hidden
	b.ndim = owner.NDim()
	b.chain = transform.NewLayerChain(b.ndim)
	b.physical = transform.NewComposite(b.ndim, transform.DataToPhysical)
	b.extent = extent.NewCache(b.computeExtent, b.computeAugmented)
	b.scaleFactor = 1
	b.cornerPixels = [2][]int{make([]int, b.ndim), make([]int, b.ndim)}

	if opts.Scale != nil {
		if err := b.physical.SetScale(opts.Scale); err != nil {
			return err
		}
	}
	if opts.Translate != nil {
		if err := b.physical.SetTranslate(opts.Translate); err != nil {
			return err
		}
	}
	if opts.Rotate != nil {
		if err := b.physical.SetRotate(opts.Rotate); err != nil {
			return err
		}
	}
	if opts.Shear != nil {
		if err := b.physical.SetShear(opts.Shear); err != nil {
			return err
		}
	}
	if opts.Units != nil {
		if err := b.physical.SetUnits(opts.Units); err != nil {
			return err
		}
	}
	if opts.AxisLabels != nil {
		if err := b.physical.SetAxisLabels(opts.AxisLabels); err != nil {
			return err
		}
	}
	if opts.Affine != nil {
		a := opts.Affine.Clone()
		a.Name = transform.PhysicalToWorld
		if err := b.chain.Set(2, a); err != nil {
			return err
		}
	}
	b.stale = true
	b.sync()
	return nil
}

// sync pushes the composite into the chain and invalidates the extent
// when either has changed since the last call.
func (b *Base) sync() {
	if v := b.physical.Version(); b.stale || v != b.seen {
		_ = b.chain.Set(1, b.physical.Affine())
		b.seen = v
		b.stale = false
	}
	if v := b.chain.Version(); v != b.seenChain {
		b.seenChain = v
		b.extent.Invalidate()
	}
}

func (b *Base) commit(err error) error {
	if err != nil {
		return fmt.Errorf("layer: %q: %w", b.Name, err)
	}
	b.sync()
	return nil
}

func (b *Base) SetScale(s []float64) error { return b.commit(b.physical.SetScale(s)) }
func (b *Base) SetTranslate(t []float64) error { return b.commit(b.physical.SetTranslate(t)) }
func (b *Base) SetRotate(r mat.Matrix) error { return b.commit(b.physical.SetRotate(r)) }
func (b *Base) SetShear(s []float64) error { return b.commit(b.physical.SetShear(s)) }
func (b *Base) SetUnits(u []string) error { return b.commit(b.physical.SetUnits(u)) }
func (b *Base) SetAxisLabels(l []string) error { return b.commit(b.physical.SetAxisLabels(l)) }

// SetAffine replaces the physical-to-world transform.
func (b *Base) SetAffine(a *transform.Affine) error {
	a = a.Clone()
	a.Name = transform.PhysicalToWorld
	return b.commit(b.chain.Set(2, a))
}

func (b *Base) Scale() []float64 { return b.physical.Scale() }
func (b *Base) Translate() []float64 { return b.physical.Translate() }
func (b *Base) Units() []string { return b.physical.Units() }
func (b *Base) AxisLabels() []string { return b.physical.AxisLabels() }
func (b *Base) Chain() *transform.Chain { return b.chain }
func (b *Base) SliceInput() slicing.SliceInput { return b.sliceInput }
func (b *Base) Slices() int { return b.sliceCount }
func (b *Base) ExtentCache() *extent.Cache { return b.extent }
func (b *Base) Multiscale() bool { return b.multiscale }
func (b *Base) DataLevel() int { return b.dataLevel }
func (b *Base) LevelShapes() [][]int { return b.levelShapes }
func (b *Base) ScaleFactor() float64 { return b.scaleFactor }

// CornerPixels returns the data-space corners of the visible canvas at the
// current data level.
func (b *Base) CornerPixels() [2][]int {
	return [2][]int{slices.Clone(b.cornerPixels[0]), slices.Clone(b.cornerPixels[1])}
}

// DataToWorld is data2physical followed by physical2world.
func (b *Base) DataToWorld() *transform.Affine {
	return b.chain.Sub(1, 3).Simplified()
}

func (b *Base) alignPosition(pos []float64) []float64 {
	if len(pos) >= b.ndim {
		return slices.Clone(pos[len(pos)-b.ndim:])
	}
	out := make([]float64, b.ndim)
	copy(out[b.ndim-len(pos):], pos)
	return out
}

// WorldToData maps a world position to data coordinates. Longer positions
// use their trailing axes; shorter ones are zero-padded at the front.
func (b *Base) WorldToData(pos []float64) ([]float64, error) {
	inv, err := b.DataToWorld().Inverse()
	if err != nil {
		return nil, fmt.Errorf("layer: world to data: %w", err)
	}
	return inv.Apply(b.alignPosition(pos)), nil
}

// DataToWorldPoint maps a data position to world coordinates.
func (b *Base) DataToWorldPoint(pos []float64) []float64 {
	return b.DataToWorld().Apply(b.alignPosition(pos))
}

func (b *Base) computeExtent() extent.Extent {
	b.logger().Debug("recomputing extent")
	return extent.Compute(b.owner.DataExtent(), b.DataToWorld())
}

func (b *Base) computeAugmented() extent.Extent {
	b.logger().Debug("recomputing augmented extent")
	return extent.Compute(b.owner.AugmentedDataExtent(), b.DataToWorld())
}

// Extent returns the cached plain extent.
func (b *Base) Extent() extent.Extent {
	b.sync()
	return b.extent.Get()
}

// ExtentAugmented returns the cached augmented extent.
func (b *Base) ExtentAugmented() extent.Extent {
	b.sync()
	return b.extent.Augmented()
}

// InvalidateExtent marks the extent dirty; variants call it on data
// mutation.
func (b *Base) InvalidateExtent() { b.extent.Invalidate() }

// SlicedExtentAugmented is the augmented world extent restricted to the
// layer's displayed axes.
func (b *Base) SlicedExtentAugmented() [2][]float64 {
	return extent.Select(b.ExtentAugmented().World, b.sliceInput.Displayed())
}

// UpdateDims reconciles the transforms and slice input with the owner's
// current dimensionality: dropped axes are sliced away from the front and
// new axes are inserted at the front.
func (b *Base) UpdateDims() {
	ndim := b.owner.NDim()
	old := b.ndim
	if ndim == old {
		return
	}
	if old > ndim {
		keep := lo.RangeFrom(old-ndim, ndim)
		b.chain = b.chain.SetSlice(keep)
		b.physical = b.physical.SetSlice(keep)
	} else {
		added := lo.Range(ndim - old)
		b.chain = b.chain.ExpandDims(added)
		b.physical = b.physical.ExpandDims(added)
	}
	b.stale = true
	b.ndim = ndim
	b.sliceInput = withNDim(b.sliceInput, ndim)
	b.cornerPixels = [2][]int{make([]int, ndim), make([]int, ndim)}
	b.sync()
	b.extent.Invalidate()
	b.owner.UpdateDisplayedData()
}

// withNDim resizes a slice input the way dims are resized: axes are added
// or removed at the front and the order is re-indexed.
func withNDim(s slicing.SliceInput, ndim int) slicing.SliceInput {
	old := s.NDim()
	switch {
	case old > ndim:
		return slicing.SliceInput{
			NDisplay:   s.NDisplay,
			WorldSlice: s.WorldSlice.Last(ndim),
			Order:      reorderAfterReduction(s.Order[old-ndim:]),
		}
	case old < ndim:
		order := lo.Range(ndim - old)
		for _, o := range s.Order {
			order = append(order, o+ndim-old)
		}
		return slicing.SliceInput{
			NDisplay:   s.NDisplay,
			WorldSlice: s.WorldSlice.Last(ndim),
			Order:      order,
		}
	}
	return s
}

// reorderAfterReduction re-indexes the remaining axes to 0..n-1 keeping
// their relative order.
func reorderAfterReduction(order []int) []int {
	sorted := slices.Clone(order)
	slices.Sort(sorted)
	out := make([]int, len(order))
	for i, o := range order {
		out[i] = slices.Index(sorted, o)
	}
	return out
}

// RefreshSlice rebuilds the slice input from dims and re-slices when it
// differs from the cached one or force is set. A nil dims slices the layer
// on its own with 2 displayed axes at the origin. It reports whether the
// layer was re-sliced.
func (b *Base) RefreshSlice(dims slicing.DimsSource, force bool) bool {
	if dims == nil {
		dims = slicing.NewDims(b.ndim)
	}
	in := slicing.MakeSliceInput(dims, b.ndim)
	if !force && in.Equal(b.sliceInput) {
		return false
	}
	b.sliceInput = in
	b.sliceCount++
	b.logger().Debug("slicing", "ndisplay", in.NDisplay, "order", in.Order)
	b.extent.Invalidate()
	b.owner.UpdateDisplayedData()
	return true
}

// DataSlice is the current world slice mapped into data coordinates.
func (b *Base) DataSlice() slicing.ThickNDSlice {
	inv, err := b.DataToWorld().Inverse()
	if err != nil {
		return slicing.NewThickNDSlice(b.ndim)
	}
	return b.sliceInput.DataSlice(inv)
}

// RayIntersections returns where the ray from position along viewDirection
// enters and leaves the layer's data bounding box, in data coordinates.
// Both results are nil unless exactly three axes are displayed and the ray
// hits the box. With world set, position and direction are world
// coordinates and are mapped into data coordinates first. Axes that are
// not displayed keep the coordinates of position.
func (b *Base) RayIntersections(position, viewDirection []float64, dimsDisplayed []int, world bool) ([]float64, []float64) {
	if len(dimsDisplayed) != 3 {
		return nil, nil
	}
	box := extent.Select(b.Extent().Data, dimsDisplayed)
	if slices.ContainsFunc(box[0], math.IsNaN) || slices.ContainsFunc(box[1], math.IsNaN) {
		return nil, nil
	}
	bbox := r3.Box{
		Min: geometry.Vec(box[0]),
		Max: r3.Add(geometry.Vec(box[1]), r3.Vec{X: 1, Y: 1, Z: 1}),
	}

	var click, dir, base []float64
	if world {
		p, err := b.WorldToData(position)
		if err != nil {
			return nil, nil
		}
		d, ok := b.worldToDataRay(viewDirection)
		if !ok {
			return nil, nil
		}
		base = p
		click = pick(p, dimsDisplayed)
		dir = pick(d, dimsDisplayed)
	} else {
		base = b.alignPosition(position)
		click = pick(base, dimsDisplayed)
		dir = pick(viewDirection, dimsDisplayed)
	}
	dv := geometry.Vec(dir)
	if r3.Norm(dv) == 0 {
		return nil, nil
	}
	start, end, ok := geometry.IntersectRayBox(geometry.Vec(click), r3.Unit(dv), bbox)
	if !ok {
		return nil, nil
	}
	s := slices.Clone(base)
	e := slices.Clone(base)
	for i, ax := range dimsDisplayed {
		s[ax] = geometry.Component(start, i)
		e[ax] = geometry.Component(end, i)
	}
	return s, e
}

// worldToDataRay maps a world direction into a unit data direction by
// mapping the origin and the tip.
func (b *Base) worldToDataRay(v []float64) ([]float64, bool) {
	p1, err := b.WorldToData(v)
	if err != nil {
		return nil, false
	}
	p0, _ := b.WorldToData(make([]float64, len(v)))
	d := make([]float64, len(p1))
	var n float64
	for i := range d {
		d[i] = p1[i] - p0[i]
		n += d[i] * d[i]
	}
	if n == 0 {
		return nil, false
	}
	n = math.Sqrt(n)
	for i := range d {
		d[i] /= n
	}
	return d, true
}

func pick(v []float64, axes []int) []float64 {
	out := make([]float64, len(axes))
	for i, ax := range axes {
		if ax < len(v) {
			out[i] = v[ax]
		}
	}
	return out
}

// ClickRay is RayIntersections for a world click on the layer's current
// displayed axes.
func (b *Base) ClickRay(world, viewDirection []float64) ([]float64, []float64) {
	pos, err := b.WorldToData(world)
	if err != nil {
		return nil, nil
	}
	dir, ok := b.worldToDataRay(viewDirection)
	if !ok {
		return nil, nil
	}
	return b.RayIntersections(pos, dir, b.sliceInput.Displayed(), false)
}

func (b *Base) logger() *slog.Logger {
	return logging.WithComponent("layer").With("layer", b.Name, "kind", string(b.owner.Kind()))
}
