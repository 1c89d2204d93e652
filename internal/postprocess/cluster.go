// Package postprocess clusters raw per-window detections into final face
// rectangles by overlap.
package postprocess

import "github.com/kestrelvision/facecascade/internal/geom"

// overlapRatio is the symmetric-overlap threshold above which two
// rectangles are merged into the same cluster.
const overlapRatio = 0.5

// sameFace reports whether a and b overlap enough to belong to the same
// cluster: the overlap area exceeds half of either rectangle's own area.
func sameFace(a, b geom.Rect) bool {
	h, w := a.Overlap(b)
	if h == 0 || w == 0 {
		return false
	}
	overlapArea := float64(h * w)
	if overlapArea/float64(a.Area()) > overlapRatio {
		return true
	}
	return overlapArea/float64(b.Area()) > overlapRatio
}

// Cluster groups raw detections into final rectangles. It visits every
// pair in order; when a pair should merge but already carries different
// labels, every rectangle under the larger label is renamed to the
// smaller one. The result is one rectangle per surviving label, each
// field the componentwise mean (integer-truncated) of its members. The set
// of output rectangles does not depend on the input order; their order in
// the returned slice follows each cluster's lowest input index.
func Cluster(rects []geom.Rect) []geom.Rect {
	n := len(rects)
	if n == 0 {
		return nil
	}

	labels := make([]int, n)
	for i := range labels {
		labels[i] = i
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if !sameFace(rects[i], rects[j]) {
				continue
			}
			li, lj := labels[i], labels[j]
			if li == lj {
				continue
			}
			oldLabel, newLabel := li, lj
			if newLabel < oldLabel {
				oldLabel, newLabel = newLabel, oldLabel
			}
			for k := range labels {
				if labels[k] == newLabel {
					labels[k] = oldLabel
				}
			}
		}
	}

	sums := make(map[int]geom.Rect)
	counts := make(map[int]int)
	for i, label := range labels {
		r := sums[label]
		r.Y += rects[i].Y
		r.X += rects[i].X
		r.H += rects[i].H
		r.W += rects[i].W
		sums[label] = r
		counts[label]++
	}

	// Deterministic output order: ascending label.
	orderedLabels := make([]int, 0, len(sums))
	for label := range sums {
		orderedLabels = append(orderedLabels, label)
	}
	for i := 1; i < len(orderedLabels); i++ {
		for j := i; j > 0 && orderedLabels[j-1] > orderedLabels[j]; j-- {
			orderedLabels[j-1], orderedLabels[j] = orderedLabels[j], orderedLabels[j-1]
		}
	}

	out := make([]geom.Rect, 0, len(orderedLabels))
	for _, label := range orderedLabels {
		count := counts[label]
		sum := sums[label]
		out = append(out, geom.Rect{
			Y: sum.Y / count,
			X: sum.X / count,
			H: sum.H / count,
			W: sum.W / count,
		})
	}
	return out
}
