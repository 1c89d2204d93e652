package integral

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
)

// Loader holds an ordered sequence of (image, integral table) pairs. It is
// read-only after construction for every downstream consumer.
type Loader struct {
	paths   []string
	tables  []*Table
}

// LoadGrayscale decodes every path, converts it to 8-bit grayscale and
// computes its integral table. Image decoding itself is treated as an
// external collaborator: this uses the standard image package's registered
// decoders and a standard luminance conversion, not a hand-rolled codec.
func LoadGrayscale(paths []string) (*Loader, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("loader: no paths given")
	}

	tables := make([]*Table, 0, len(paths))
	for _, p := range paths {
		gray, w, h, err := decodeGray(p)
		if err != nil {
			return nil, fmt.Errorf("loader: %s: %w", p, err)
		}
		tables = append(tables, Compute(gray, w, h))
	}

	return &Loader{paths: paths, tables: tables}, nil
}

func decodeGray(path string) (pix []byte, w, h int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, 0, 0, err
	}

	bounds := img.Bounds()
	w, h = bounds.Dx(), bounds.Dy()
	gray := make([]byte, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			// Rec. 601 luma, matching 8-bit channel ranges after the >>8 shift.
			lum := (299*uint32(r>>8) + 587*uint32(g>>8) + 114*uint32(b>>8)) / 1000
			gray[y*w+x] = byte(lum)
		}
	}
	return gray, w, h, nil
}

// Count returns the number of images held by the loader.
func (l *Loader) Count() int { return len(l.tables) }

// ImageWidth returns the width of the image at idx.
func (l *Loader) ImageWidth(idx int) int { return l.tables[idx].W }

// ImageHeight returns the height of the image at idx.
func (l *Loader) ImageHeight(idx int) int { return l.tables[idx].H }

// IntegralAt returns I[y,x] for the image at idx.
func (l *Loader) IntegralAt(idx, y, x int) uint32 { return l.tables[idx].At(y, x) }

// Table returns the integral table for the image at idx.
func (l *Loader) Table(idx int) *Table { return l.tables[idx] }

// Tables returns every integral table held by the loader, in load order.
func (l *Loader) Tables() []*Table {
	out := make([]*Table, len(l.tables))
	copy(out, l.tables)
	return out
}

// Path returns the source path for the image at idx.
func (l *Loader) Path(idx int) string { return l.paths[idx] }

// RequireSquare validates every loaded image is square with the given edge
// length, the invariant training positives/negatives must satisfy.
func (l *Loader) RequireSquare(edge int) error {
	for i, t := range l.tables {
		if t.W != edge || t.H != edge {
			return fmt.Errorf("loader: %s: expected %dx%d, got %dx%d", l.paths[i], edge, edge, t.W, t.H)
		}
	}
	return nil
}

// DropPixels is a no-op placeholder documenting that, after integral tables
// are computed, the loader never retains raw pixel buffers — only the
// summed-area tables survive, matching the ownership model training relies
// on to keep memory bounded across a long run.
func (l *Loader) DropPixels() {
	slog.Debug("integral loader holds no raw pixel buffers past construction", "images", len(l.tables))
}
