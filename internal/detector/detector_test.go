package detector

import (
	"math"
	"testing"

	"github.com/kestrelvision/facecascade/internal/cascade"
	"github.com/kestrelvision/facecascade/internal/haar"
	"github.com/kestrelvision/facecascade/internal/integral"
)

func onePassCascade(bias float64) *cascade.Cascade {
	return &cascade.Cascade{
		BaseWindow: 24,
		Stages: []cascade.Stage{
			{
				Bias: bias,
				Classifiers: []cascade.WeightedClassifier{
					{
						Classifier: haar.Classifier{
							Feature:   haar.Feature{SRow: 0, SCol: 0, LRow: 24, LCol: 24, Type: haar.V2},
							Threshold: 0,
							Polarity:  haar.Greater,
						},
						Weight: 1.0,
					},
				},
			},
		},
	}
}

// TestS5CascadeShortCircuit verifies a first stage with an unreachable
// bias yields an empty detection set on every image.
func TestS5CascadeShortCircuit(t *testing.T) {
	c := onePassCascade(math.Inf(1))

	gray := make([]byte, 64*64)
	for i := range gray {
		gray[i] = byte(i % 256)
	}
	table := integral.Compute(gray, 64, 64)

	got := Detect(c, table)
	if len(got) != 0 {
		t.Errorf("Detect() = %+v, want empty", got)
	}
}

// TestS6MultiScaleCoverage builds an image with a 48x48 white square on a
// black background and a permissive cascade, checking the scan reaches a
// window size near the square (the s=2 neighborhood for W=24), since the
// geometric scale series 1.25^k never lands on an integer scale exactly.
func TestS6MultiScaleCoverage(t *testing.T) {
	const imgSize = 96
	const squareSize = 48
	const squareOrigin = 8

	gray := make([]byte, imgSize*imgSize)
	for y := 0; y < imgSize; y++ {
		for x := 0; x < imgSize; x++ {
			v := byte(0)
			if y >= squareOrigin && y < squareOrigin+squareSize && x >= squareOrigin && x < squareOrigin+squareSize {
				v = 255
			}
			gray[y*imgSize+x] = v
		}
	}
	table := integral.Compute(gray, imgSize, imgSize)

	// An always-accepting one-stage cascade: threshold is unreachable so
	// every window passes, isolating the scan's scale coverage.
	c := onePassCascade(-1)
	c.Stages[0].Classifiers[0].Classifier.Threshold = -1e9
	raw := Scan(c, table)

	foundNearScale2 := false
	for _, r := range raw {
		if r.H >= squareSize-3 && r.H <= squareSize+3 &&
			r.Y >= squareOrigin-3 && r.Y <= squareOrigin+3 &&
			r.X >= squareOrigin-3 && r.X <= squareOrigin+3 {
			foundNearScale2 = true
		}
	}
	if !foundNearScale2 {
		t.Errorf("expected a raw detection near window size %d aligned to the square", squareSize)
	}
}

func TestDetectNeverFailsOnTinyImage(t *testing.T) {
	c := onePassCascade(0)
	gray := make([]byte, 4*4)
	table := integral.Compute(gray, 4, 4)

	got := Detect(c, table)
	if len(got) != 0 {
		t.Errorf("Detect() on an image smaller than the base window = %+v, want empty", got)
	}
}
