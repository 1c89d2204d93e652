package weaklearn

import (
	"testing"

	"github.com/kestrelvision/facecascade/internal/haar"
)

// TestSeparableCase is the spec's synthetic 1-D separable scenario:
// positives at feature value 0, negatives at 10, uniform weights. The
// learned threshold must fall in (0,10), polarity "less", error 0.
func TestSeparableCase(t *testing.T) {
	feature := haar.Feature{SRow: 0, SCol: 0, LRow: 4, LCol: 8, Type: haar.V2}

	pos := make([]Sample, 50)
	for i := range pos {
		pos[i] = Sample{Value: 0, Weight: 1.0 / 50}
	}
	neg := make([]Sample, 50)
	for i := range neg {
		neg[i] = Sample{Value: 10, Weight: 1.0 / 50}
	}

	err, clf := Train(feature, pos, neg)
	if err > 1e-9 {
		t.Errorf("training error = %v, want 0", err)
	}
	if clf.Polarity != haar.Less {
		t.Errorf("polarity = %v, want Less", clf.Polarity)
	}
	if clf.Threshold <= 0 || clf.Threshold >= 10 {
		t.Errorf("threshold = %v, want in (0,10)", clf.Threshold)
	}
}

// TestTiedValuesDoNotStraddle ensures equal-valued positive and negative
// samples are consumed as one group before an error is recorded, so no
// threshold can separate them.
func TestTiedValuesDoNotStraddle(t *testing.T) {
	feature := haar.Feature{SRow: 0, SCol: 0, LRow: 4, LCol: 8, Type: haar.V2}

	pos := []Sample{{Value: 5, Weight: 0.5}}
	neg := []Sample{{Value: 5, Weight: 0.5}}

	err, _ := Train(feature, pos, neg)
	// One sample of each class at the same value: best achievable error is
	// 0.5 either way (exactly one of them is always misclassified).
	if err < 0.5-1e-9 {
		t.Errorf("training error = %v, want >= 0.5 (tied values cannot be separated)", err)
	}
}

// TestGreaterPolarity exercises the symmetric case where negatives sit
// below positives.
func TestGreaterPolarity(t *testing.T) {
	feature := haar.Feature{SRow: 0, SCol: 0, LRow: 4, LCol: 8, Type: haar.V2}

	pos := []Sample{{Value: 10, Weight: 0.5}, {Value: 11, Weight: 0.5}}
	neg := []Sample{{Value: 0, Weight: 0.5}, {Value: 1, Weight: 0.5}}

	err, clf := Train(feature, pos, neg)
	if err > 1e-9 {
		t.Errorf("training error = %v, want 0", err)
	}
	if clf.Polarity != haar.Greater {
		t.Errorf("polarity = %v, want Greater", clf.Polarity)
	}
}
