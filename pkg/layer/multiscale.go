package layer

import (
	"math"
	"slices"

	"github.com/chazu/ndview/pkg/extent"
)

// ComputeLevel picks the lowest resolution level whose downsampled view
// of requestedShape still exceeds threshold on every axis. Level 0 is
// returned when none does.
func ComputeLevel(requestedShape, threshold []float64, downsample [][]float64) int {
	level := 0
	for l, f := range downsample {
		above := true
		for i := range requestedShape {
			if requestedShape[i]/f[i] <= threshold[i] {
				above = false
				break
			}
		}
		if above {
			level = l
		}
	}
	return level
}

// ComputeLevelAndCorners selects a level for the integer corner box and
// returns the corners scaled into that level, floored and ceiled.
func ComputeLevelAndCorners(corners [2][]int, threshold []float64, downsample [][]float64) (int, [2][]int) {
	n := len(corners[0])
	requested := make([]float64, n)
	for i := range requested {
		requested[i] = float64(corners[1][i] - corners[0][i])
	}
	level := ComputeLevel(requested, threshold, downsample)
	out := [2][]int{make([]int, n), make([]int, n)}
	for i := 0; i < n; i++ {
		f := downsample[level][i]
		out[0][i] = int(math.Floor(float64(corners[0][i]) / f))
		out[1][i] = int(math.Ceil(float64(corners[1][i]) / f))
	}
	return level, out
}

// SetMultiscale declares the shapes of the resolution levels, finest
// first. Downsample factors are the ratios of the level 0 shape to each
// level's shape.
func (b *Base) SetMultiscale(levelShapes [][]int) {
	if len(levelShapes) < 2 {
		b.multiscale = false
		b.levelShapes = levelShapes
		b.downsample = nil
		b.dataLevel = 0
		return
	}
	b.multiscale = true
	b.levelShapes = levelShapes
	b.downsample = make([][]float64, len(levelShapes))
	for l, s := range levelShapes {
		f := make([]float64, len(s))
		for i := range s {
			f[i] = float64(levelShapes[0][i]) / float64(max(s[i], 1))
		}
		b.downsample[l] = f
	}
}

// DownsampleFactors returns the per-level, per-axis downsample factors.
func (b *Base) DownsampleFactors() [][]float64 { return b.downsample }

// UpdateDraw records the canvas scale and converts the canvas corners,
// given in world coordinates over the displayed axes, into data-space
// corner pixels. For 2D multiscale layers it also selects the data level
// against shapeThreshold and re-slices when the level or corners change.
func (b *Base) UpdateDraw(scaleFactor float64, cornersWorld [2][]float64, shapeThreshold []float64) {
	b.scaleFactor = scaleFactor
	displayed := b.sliceInput.Displayed()

	inv, err := b.DataToWorld().SetSlice(displayed).Inverse()
	if err != nil {
		b.logger().Warn("update draw: non-invertible transform", "err", err)
		return
	}
	dataCorners := inv.ApplyAll(extent.Corners(cornersWorld))
	bbox := extent.OfPoints(dataCorners, len(displayed))
	bboxInt := [2][]int{make([]int, len(displayed)), make([]int, len(displayed))}
	for i := range displayed {
		bboxInt[0][i] = int(math.Floor(bbox[0][i]))
		bboxInt[1][i] = int(math.Ceil(bbox[1][i]))
	}

	if b.sliceInput.NDisplay == 2 && b.multiscale {
		down := make([][]float64, len(b.downsample))
		for l, f := range b.downsample {
			down[l] = pick(f, displayed)
		}
		level, scaled := ComputeLevelAndCorners(bboxInt, shapeThreshold, down)
		corners := [2][]int{make([]int, b.ndim), make([]int, b.ndim)}
		for i, ax := range displayed {
			hi := b.levelShapes[level][ax] - 1
			corners[0][ax] = clampInt(scaled[0][i], 0, hi)
			corners[1][ax] = clampInt(scaled[1][i], 0, hi)
			if corners[1][ax]-corners[0][ax] == 0 {
				return
			}
		}
		if level != b.dataLevel || !slices.Equal(corners[0], b.cornerPixels[0]) || !slices.Equal(corners[1], b.cornerPixels[1]) {
			b.dataLevel = level
			b.cornerPixels = corners
			b.logger().Debug("multiscale level", "level", level)
			b.owner.UpdateDisplayedData()
		}
		return
	}

	if b.multiscale {
		b.dataLevel = len(b.levelShapes) - 1
	}
	corners := [2][]int{make([]int, b.ndim), make([]int, b.ndim)}
	ext := extent.Select(b.Extent().Data, displayed)
	allNaN := true
	for i := range displayed {
		if !math.IsNaN(ext[0][i]) || !math.IsNaN(ext[1][i]) {
			allNaN = false
		}
	}
	if !allNaN {
		for i, ax := range displayed {
			corners[0][ax] = int(math.Max(math.Min(float64(bboxInt[0][i]), ext[1][i]), ext[0][i]))
			corners[1][ax] = int(math.Max(math.Min(float64(bboxInt[1][i]), ext[1][i]), ext[0][i]))
		}
	}
	b.cornerPixels = corners
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
