// Package integral loads grayscale images and builds summed-area (integral)
// tables that let the rest of the cascade compute any rectangle sum in O(1).
package integral

// Table is a summed-area table over an H x W grayscale image.
//
// Sum[y*W+x] holds the sum of every pixel at or above and at or left of
// (y,x). Out-of-bounds queries clamp to the last row/column rather than
// panicking; this replicates the legacy lookup behavior a trained model's
// thresholds depend on.
type Table struct {
	Sum    []uint32
	W, H   int
}

// Compute builds the integral table for a row-major 8-bit grayscale buffer
// of size W x H. Computation proceeds row-major with a running row sum:
// I[y,x] = I[y-1,x] + rowSum(x).
func Compute(gray []byte, w, h int) *Table {
	sum := make([]uint32, w*h)
	for y := 0; y < h; y++ {
		var rowSum uint32
		rowOff := y * w
		prevRowOff := rowOff - w
		for x := 0; x < w; x++ {
			rowSum += uint32(gray[rowOff+x])
			if y == 0 {
				sum[rowOff+x] = rowSum
			} else {
				sum[rowOff+x] = sum[prevRowOff+x] + rowSum
			}
		}
	}
	return &Table{Sum: sum, W: w, H: h}
}

// At returns I[y,x], clamping out-of-range indices to the last valid
// row/column in either direction.
func (t *Table) At(y, x int) uint32 {
	if y < 0 {
		y = 0
	} else if y >= t.H {
		y = t.H - 1
	}
	if x < 0 {
		x = 0
	} else if x >= t.W {
		x = t.W - 1
	}
	return t.Sum[y*t.W+x]
}

// Width returns the width of the image the table was computed over.
func (t *Table) Width() int { return t.W }

// Height returns the height of the image the table was computed over.
func (t *Table) Height() int { return t.H }
