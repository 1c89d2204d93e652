// Package cascade holds the trained model data structures and their
// runtime evaluation: a Cascade is an ordered sequence of Stages, and a
// window is a face iff every stage accepts it.
package cascade

import (
	"fmt"
	"strings"

	"github.com/kestrelvision/facecascade/internal/haar"
)

// WeightedClassifier pairs a trained weak classifier with the AdaBoost
// vote weight assigned to it.
type WeightedClassifier struct {
	Classifier haar.Classifier
	Weight     float64
}

// Stage is a single AdaBoost ensemble: a window is accepted iff the
// weighted vote total exceeds Bias.
type Stage struct {
	Classifiers []WeightedClassifier
	Bias        float64
}

// Score computes the unnormalized weighted vote total for a window.
func (s *Stage) Score(src haar.IntegralSource, winY, winX int, scale float64) float64 {
	var total float64
	for _, wc := range s.Classifiers {
		total += wc.Weight * float64(wc.Classifier.Decide(src, winY, winX, scale))
	}
	return total
}

// Accept reports whether the stage's vote total exceeds its bias.
func (s *Stage) Accept(src haar.IntegralSource, winY, winX int, scale float64) bool {
	return s.Score(src, winY, winX, scale) > s.Bias
}

// Cascade is an ordered sequence of stages over a fixed base window size.
type Cascade struct {
	BaseWindow int
	Stages     []Stage
}

// Detect evaluates every stage in order against the given window,
// short-circuiting at the first rejection.
func (c *Cascade) Detect(src haar.IntegralSource, winY, winX int, scale float64) bool {
	for i := range c.Stages {
		if !c.Stages[i].Accept(src, winY, winX, scale) {
			return false
		}
	}
	return true
}

// Summary reports stage and classifier counts for CLI diagnostics, without
// dumping the full classifier set.
type Summary struct {
	BaseWindow       int
	StageCount       int
	ClassifiersTotal int
	PerStage         []int
}

// Inspect builds a metadata-only Summary of the cascade.
func (c *Cascade) Inspect() Summary {
	s := Summary{BaseWindow: c.BaseWindow, StageCount: len(c.Stages), PerStage: make([]int, len(c.Stages))}
	for i, stage := range c.Stages {
		s.PerStage[i] = len(stage.Classifiers)
		s.ClassifiersTotal += len(stage.Classifiers)
	}
	return s
}

func (s Summary) String() string {
	counts := make([]string, len(s.PerStage))
	for i, n := range s.PerStage {
		counts[i] = fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("window=%d stages=%d classifiers=%d (%s)",
		s.BaseWindow, s.StageCount, s.ClassifiersTotal, strings.Join(counts, ","))
}
