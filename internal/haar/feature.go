// Package haar describes Haar-like rectangle features and the single-feature
// decision stumps (classifiers) built on top of them.
package haar

import (
	"fmt"
	"math"
)

// FeatureType is a closed tagged variant over the four rectangle layouts
// this cascade supports. Dispatch is a switch on the tag rather than a
// class hierarchy, which keeps the inner evaluation loop free of virtual
// calls and makes serialization a single integer field.
type FeatureType int

const (
	// V2 is a two-rectangle vertical split (left/right halves).
	V2 FeatureType = iota
	// H2 is a two-rectangle horizontal split (top/bottom halves).
	H2
	// V3 is a three-rectangle vertical split (left/middle/right thirds).
	V3
	// D4 is a four-rectangle checker (diagonal quadrants).
	D4
)

func (t FeatureType) String() string {
	switch t {
	case V2:
		return "V2"
	case H2:
		return "H2"
	case V3:
		return "V3"
	case D4:
		return "D4"
	default:
		return fmt.Sprintf("FeatureType(%d)", int(t))
	}
}

// Feature is a rectangle feature defined on a square base window of edge W.
// SRow/SCol is the window-local origin in pixels; LRow/LCol is the extent.
type Feature struct {
	SRow, SCol int
	LRow, LCol int
	Type       FeatureType
}

// Validate checks the invariants from the data model: non-negative origin,
// extents divisible by the type's split granularity, and the feature fits
// inside the base window W.
func (f Feature) Validate(w int) error {
	if f.SRow < 0 || f.SCol < 0 {
		return fmt.Errorf("haar: negative origin (%d,%d)", f.SRow, f.SCol)
	}
	if f.LRow <= 0 || f.LCol <= 0 {
		return fmt.Errorf("haar: non-positive extent (%d,%d)", f.LRow, f.LCol)
	}
	switch f.Type {
	case V2:
		if f.LCol%2 != 0 {
			return fmt.Errorf("haar: V2 extent cols %d not divisible by 2", f.LCol)
		}
	case H2:
		if f.LRow%2 != 0 {
			return fmt.Errorf("haar: H2 extent rows %d not divisible by 2", f.LRow)
		}
	case V3:
		if f.LCol%3 != 0 {
			return fmt.Errorf("haar: V3 extent cols %d not divisible by 3", f.LCol)
		}
	case D4:
		if f.LRow%2 != 0 || f.LCol%2 != 0 {
			return fmt.Errorf("haar: D4 extent (%d,%d) not divisible by 2", f.LRow, f.LCol)
		}
	default:
		return fmt.Errorf("haar: unknown feature type %v", f.Type)
	}
	if f.SRow+f.LRow > w || f.SCol+f.LCol > w {
		return fmt.Errorf("haar: feature %+v exceeds base window %d", f, w)
	}
	return nil
}

// IntegralSource is the minimal accessor a feature needs to evaluate an
// integral table: a clamped corner lookup. integral.Table satisfies this
// structurally, so haar never needs to import the integral package.
type IntegralSource interface {
	At(y, x int) uint32
}

// roundHalfUp matches the legacy "add 0.5 and floor" rounding used for
// scaled window coordinates. It must not be replaced with round-half-even
// or any language-default rounding: trained thresholds assume this exact
// behavior.
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

// rectSum computes the sum of pixels in the inclusive rectangle
// (sy,sx)-(ey,ex) from an integral table, using the corner-lookup recipe
// that special-cases the top row/left column to avoid negative indices.
func rectSum(src IntegralSource, sy, sx, ey, ex int) int64 {
	switch {
	case sy > 0 && sx > 0:
		return int64(src.At(sy-1, sx-1)) + int64(src.At(ey, ex)) - int64(src.At(sy-1, ex)) - int64(src.At(ey, sx-1))
	case sy > 0 && sx == 0:
		return int64(src.At(ey, ex)) - int64(src.At(sy-1, ex))
	case sy == 0 && sx > 0:
		return int64(src.At(ey, ex)) - int64(src.At(ey, sx-1))
	default:
		return int64(src.At(ey, ex))
	}
}

// effectiveGeometry scales a feature's origin and extent for evaluation at
// scan origin (winY,winX) and scale s, per the rescaling rule in the spec:
// the feature's own origin moves by round(origin*s) relative to the window,
// and its extents become round(extent*s).
func effectiveGeometry(f Feature, winY, winX int, scale float64) (sy, sx, lRow, lCol int) {
	sy = winY + roundHalfUp(float64(f.SRow)*scale)
	sx = winX + roundHalfUp(float64(f.SCol)*scale)
	lRow = roundHalfUp(float64(f.LRow) * scale)
	lCol = roundHalfUp(float64(f.LCol) * scale)
	return
}

// regionSum sums the inclusive rectangle starting at (sy,sx) with extent
// (h,w) pixels.
func regionSum(src IntegralSource, sy, sx, h, w int) int64 {
	if h <= 0 || w <= 0 {
		return 0
	}
	return rectSum(src, sy, sx, sy+h-1, sx+w-1)
}

// NormalizedValue computes the feature's signed, normalized value at scan
// origin (winY,winX) and scale. The raw positive-minus-negative rectangle
// sum is divided by the pixel count of one rectangle half/third/quadrant,
// which is what makes the stored threshold scale-invariant.
func NormalizedValue(src IntegralSource, f Feature, winY, winX int, scale float64) float64 {
	sy, sx, lRow, lCol := effectiveGeometry(f, winY, winX, scale)

	var pos, neg int64
	var divisor float64

	switch f.Type {
	case V2:
		halfCol := lCol / 2
		pos = regionSum(src, sy, sx, lRow, halfCol)
		neg = regionSum(src, sy, sx+halfCol, lRow, lCol-halfCol)
		divisor = float64(lRow*lCol) / 2.0
	case H2:
		halfRow := lRow / 2
		pos = regionSum(src, sy, sx, halfRow, lCol)
		neg = regionSum(src, sy+halfRow, sx, lRow-halfRow, lCol)
		divisor = float64(lRow*lCol) / 2.0
	case V3:
		third := lCol / 3
		left := regionSum(src, sy, sx, lRow, third)
		mid := regionSum(src, sy, sx+third, lRow, third)
		right := regionSum(src, sy, sx+2*third, lRow, lCol-2*third)
		pos = left + right
		neg = mid
		divisor = float64(lRow*lCol) / 3.0
	case D4:
		halfRow := lRow / 2
		halfCol := lCol / 2
		tl := regionSum(src, sy, sx, halfRow, halfCol)
		tr := regionSum(src, sy, sx+halfCol, halfRow, lCol-halfCol)
		bl := regionSum(src, sy+halfRow, sx, lRow-halfRow, halfCol)
		br := regionSum(src, sy+halfRow, sx+halfCol, lRow-halfRow, lCol-halfCol)
		pos = tl + br
		neg = tr + bl
		divisor = float64(lRow*lCol) / 4.0
	}

	if divisor == 0 {
		return 0
	}
	return float64(pos-neg) / divisor
}
