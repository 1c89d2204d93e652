package integral

import (
	"math/rand"
	"testing"
)

// randomGrayscale generates a deterministic pseudo-random 8-bit grayscale
// image for property testing.
func randomGrayscale(w, h int, seed int64) []byte {
	r := rand.New(rand.NewSource(seed))
	buf := make([]byte, w*h)
	r.Read(buf)
	return buf
}

func directRectSum(gray []byte, w int, y0, x0, y1, x1 int) int64 {
	var sum int64
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			sum += int64(gray[y*w+x])
		}
	}
	return sum
}

func rectSum(t *Table, sy, sx, ey, ex int) int64 {
	switch {
	case sy > 0 && sx > 0:
		return int64(t.At(sy-1, sx-1)) + int64(t.At(ey, ex)) - int64(t.At(sy-1, ex)) - int64(t.At(ey, sx-1))
	case sy > 0 && sx == 0:
		return int64(t.At(ey, ex)) - int64(t.At(sy-1, ex))
	case sy == 0 && sx > 0:
		return int64(t.At(ey, ex)) - int64(t.At(ey, sx-1))
	default:
		return int64(t.At(ey, ex))
	}
}

// TestIntegralCorrectness verifies rectangleSum against a direct pixel sum
// over 100 random rectangles across 10 random images.
func TestIntegralCorrectness(t *testing.T) {
	const w, h = 37, 29
	for img := 0; img < 10; img++ {
		gray := randomGrayscale(w, h, int64(img)*7919+1)
		table := Compute(gray, w, h)
		r := rand.New(rand.NewSource(int64(img)*104729 + 3))

		for trial := 0; trial < 100; trial++ {
			y0 := r.Intn(h)
			y1 := y0 + r.Intn(h-y0)
			x0 := r.Intn(w)
			x1 := x0 + r.Intn(w-x0)

			want := directRectSum(gray, w, y0, x0, y1, x1)
			got := rectSum(table, y0, x0, y1, x1)
			if want != got {
				t.Fatalf("img %d rect (%d,%d)-(%d,%d): want %d got %d", img, y0, x0, y1, x1, want, got)
			}
		}
	}
}

// TestS1IntegralScenario exercises the worked example from the spec.
func TestS1IntegralScenario(t *testing.T) {
	gray := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9}
	table := Compute(gray, 3, 3)

	want := []uint32{1, 3, 6, 5, 12, 21, 12, 27, 45}
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			if got := table.At(y, x); got != want[y*3+x] {
				t.Errorf("At(%d,%d) = %d, want %d", y, x, got, want[y*3+x])
			}
		}
	}

	if got := rectSum(table, 1, 1, 2, 2); got != 28 {
		t.Errorf("rectangleSum((1,1)-(2,2)) = %d, want 28", got)
	}
}

// TestClampedOOB verifies that queries beyond the table bounds saturate to
// the last valid row/column instead of panicking.
func TestClampedOOB(t *testing.T) {
	gray := randomGrayscale(5, 5, 42)
	table := Compute(gray, 5, 5)

	if got, want := table.At(100, 100), table.At(4, 4); got != want {
		t.Errorf("At(100,100) = %d, want clamp to At(4,4) = %d", got, want)
	}
	if got, want := table.At(-5, -5), table.At(0, 0); got != want {
		t.Errorf("At(-5,-5) = %d, want clamp to At(0,0) = %d", got, want)
	}
}
