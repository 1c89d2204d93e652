package haar

import (
	"math"
	"testing"

	"github.com/kestrelvision/facecascade/internal/integral"
)

func buildImage(t *testing.T, w, h int, fill func(y, x int) byte) *integral.Table {
	t.Helper()
	gray := make([]byte, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gray[y*w+x] = fill(y, x)
		}
	}
	return integral.Compute(gray, w, h)
}

// TestV2UniformIsZero covers the normalization-sign invariant: a V2 feature
// on a uniform gray image normalizes to 0.
func TestV2UniformIsZero(t *testing.T) {
	table := buildImage(t, 24, 24, func(y, x int) byte { return 128 })
	f := Feature{SRow: 0, SCol: 0, LRow: 24, LCol: 24, Type: V2}

	v := NormalizedValue(table, f, 0, 0, 1.0)
	if math.Abs(v) > 1 {
		t.Errorf("V2 on uniform image = %v, want ~0", v)
	}
}

// TestS2V2HalfSplit is the worked example: half-white, half-black image,
// full-window V2 feature should read +255.
func TestS2V2HalfSplit(t *testing.T) {
	table := buildImage(t, 24, 24, func(y, x int) byte {
		if x < 12 {
			return 255
		}
		return 0
	})
	f := Feature{SRow: 0, SCol: 0, LRow: 24, LCol: 24, Type: V2}

	v := NormalizedValue(table, f, 0, 0, 1.0)
	if math.Abs(v-255) > 1e-9 {
		t.Errorf("V2 half split = %v, want 255", v)
	}
}

// TestS3D4Checker is the worked example: four 12x12 quadrants valued
// [[200,50],[50,200]], whole-window D4 feature should read +300.
func TestS3D4Checker(t *testing.T) {
	table := buildImage(t, 24, 24, func(y, x int) byte {
		top := y < 12
		left := x < 12
		switch {
		case top && left:
			return 200
		case top && !left:
			return 50
		case !top && left:
			return 50
		default:
			return 200
		}
	})
	f := Feature{SRow: 0, SCol: 0, LRow: 24, LCol: 24, Type: D4}

	v := NormalizedValue(table, f, 0, 0, 1.0)
	if math.Abs(v-300) > 1e-9 {
		t.Errorf("D4 checker = %v, want 300", v)
	}
}

func TestFeatureValidate(t *testing.T) {
	cases := []struct {
		name string
		f    Feature
		w    int
		ok   bool
	}{
		{"ok V2", Feature{0, 0, 4, 8, V2}, 24, true},
		{"ok H2", Feature{0, 0, 8, 4, H2}, 24, true},
		{"ok V3", Feature{0, 0, 4, 12, V3}, 24, true},
		{"ok D4", Feature{0, 0, 8, 8, D4}, 24, true},
		{"negative origin", Feature{-1, 0, 4, 8, V2}, 24, false},
		{"bad V2 granularity", Feature{0, 0, 4, 7, V2}, 24, false},
		{"bad V3 granularity", Feature{0, 0, 4, 10, V3}, 24, false},
		{"exceeds window", Feature{20, 20, 8, 8, D4}, 24, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.f.Validate(c.w)
			if (err == nil) != c.ok {
				t.Errorf("Validate() err=%v, want ok=%v", err, c.ok)
			}
		})
	}
}

func TestSimilarSameTypeOverlap(t *testing.T) {
	a := Feature{SRow: 0, SCol: 0, LRow: 8, LCol: 8, Type: D4}
	b := Feature{SRow: 1, SCol: 1, LRow: 8, LCol: 8, Type: D4}
	if !Similar(a, b) {
		t.Errorf("expected heavily overlapping same-type features to be similar")
	}

	c := Feature{SRow: 0, SCol: 0, LRow: 8, LCol: 8, Type: V2}
	if Similar(a, c) {
		t.Errorf("different types must never be similar")
	}

	d := Feature{SRow: 16, SCol: 16, LRow: 8, LCol: 8, Type: D4}
	if Similar(a, d) {
		t.Errorf("disjoint rectangles must not be similar")
	}
}

func TestClassifierLineRoundTrip(t *testing.T) {
	c := Classifier{
		Feature:   Feature{SRow: 2, SCol: 4, LRow: 8, LCol: 12, Type: V3},
		Threshold: 3.5,
		Polarity:  Greater,
	}

	line := c.Line()
	got, err := ParseClassifierLine(line)
	if err != nil {
		t.Fatalf("ParseClassifierLine: %v", err)
	}
	if got != c {
		t.Errorf("round trip = %+v, want %+v", got, c)
	}
}
