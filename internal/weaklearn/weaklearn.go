// Package weaklearn implements the sorted-sweep weak learner: given a fixed
// Haar feature and weighted positive/negative samples, it finds the
// threshold and polarity minimizing the weighted misclassification rate.
package weaklearn

import (
	"math"
	"sort"

	"github.com/kestrelvision/facecascade/internal/haar"
)

// Sample is a single weighted feature value.
type Sample struct {
	Value  float64
	Weight float64
}

// event is an internal sweep entry tagging a sample with its class.
type event struct {
	value  float64
	weight float64
	isPos  bool
}

// Train finds the (threshold, polarity) minimizing weighted misclassification
// error for feature over the weighted samples, by sorting both arrays and
// sweeping in merged order. Equal-valued samples are consumed together
// before any error is recorded, so they never straddle a candidate
// threshold. The returned threshold carries the legacy "+0.25" tie-breaking
// nudge.
func Train(feature haar.Feature, pos, neg []Sample) (trainingError float64, classifier haar.Classifier) {
	var p, n float64
	events := make([]event, 0, len(pos)+len(neg))
	for _, s := range pos {
		p += s.Weight
		events = append(events, event{value: s.Value, weight: s.Weight, isPos: true})
	}
	for _, s := range neg {
		n += s.Weight
		events = append(events, event{value: s.Value, weight: s.Weight, isPos: false})
	}

	sort.Slice(events, func(i, j int) bool { return events[i].value < events[j].value })

	var a, b float64
	bestErr := math.Inf(1)
	var bestThreshold float64
	var bestPolarity haar.Polarity

	i := 0
	for i < len(events) {
		v := events[i].value
		j := i
		for j < len(events) && events[j].value == v {
			if events[j].isPos {
				a += events[j].weight
			} else {
				b += events[j].weight
			}
			j++
		}

		errLess := (p - a) + b
		errGreater := a + (n - b)

		if errLess < bestErr {
			bestErr = errLess
			bestThreshold = v
			bestPolarity = haar.Less
		}
		if errGreater < bestErr {
			bestErr = errGreater
			bestThreshold = v
			bestPolarity = haar.Greater
		}

		i = j
	}

	classifier = haar.Classifier{
		Feature:   feature,
		Threshold: bestThreshold + 0.25,
		Polarity:  bestPolarity,
	}
	return bestErr, classifier
}
