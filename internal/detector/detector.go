// Package detector performs multi-scale sliding-window scanning of an
// image against a trained cascade, then clusters the raw hits.
package detector

import (
	"math"

	"github.com/kestrelvision/facecascade/internal/cascade"
	"github.com/kestrelvision/facecascade/internal/geom"
	"github.com/kestrelvision/facecascade/internal/integral"
	"github.com/kestrelvision/facecascade/internal/postprocess"
)

// step0 is the base stride at scale 1.
const step0 = 2

// scaleRatio is the per-round scale multiplier.
const scaleRatio = 1.25

// roundHalfUp matches the legacy floor(v+0.5) rounding used throughout
// scale and stride computation.
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

// Scan slides the cascade's base window across every scale starting at 1.0
// and growing by scaleRatio until the window no longer fits the image,
// returning every raw acceptance before clustering.
func Scan(c *cascade.Cascade, table *integral.Table) []geom.Rect {
	var raw []geom.Rect

	imgH, imgW := table.Height(), table.Width()
	scale := 1.0
	for {
		winSize := roundHalfUp(scale * float64(c.BaseWindow))
		if winSize > imgH || winSize > imgW {
			break
		}
		stride := roundHalfUp(scale * step0)
		if stride < 1 {
			stride = 1
		}

		for y := 0; y+winSize <= imgH; y += stride {
			for x := 0; x+winSize <= imgW; x += stride {
				if c.Detect(table, y, x, scale) {
					raw = append(raw, geom.Rect{Y: y, X: x, H: winSize, W: winSize})
				}
			}
		}

		scale *= scaleRatio
	}

	return raw
}

// Detect scans at every scale and clusters the resulting raw hits into
// final face rectangles. It never fails: an image with no faces yields an
// empty slice.
func Detect(c *cascade.Cascade, table *integral.Table) []geom.Rect {
	raw := Scan(c, table)
	return postprocess.Cluster(raw)
}
