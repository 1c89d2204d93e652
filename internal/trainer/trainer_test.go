package trainer

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
)

func writeSquarePNG(t *testing.T, dir, name string, edge int, fill func(y, x int) byte) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, edge, edge))
	for y := 0; y < edge; y++ {
		for x := 0; x < edge; x++ {
			img.SetGray(x, y, color.Gray{Y: fill(y, x)})
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", name, err)
	}
	return path
}

// TestTrainSmallCascade builds a handful of synthetic "face" (left-bright,
// right-dark) and "non-face" (uniform noise) 24x24 images and trains with a
// two-stage plan, checking that at least one stage comes back (training may
// stop early once every negative is rejected) and that the progress
// callback fired once per trained stage.
func TestTrainSmallCascade(t *testing.T) {
	dir := t.TempDir()
	rng := rand.New(rand.NewSource(3))
	const edge = 24

	var posPaths, negPaths []string
	for i := 0; i < 40; i++ {
		jitter := byte(rng.Intn(15))
		path := writeSquarePNG(t, dir, "pos"+string(rune('a'+i))+".png", edge, func(y, x int) byte {
			if x < edge/2 {
				return 230 - jitter
			}
			return 20 + jitter
		})
		posPaths = append(posPaths, path)
	}
	for i := 0; i < 20; i++ {
		path := writeSquarePNG(t, dir, "neg"+string(rune('a'+i))+".png", edge, func(y, x int) byte {
			return byte(rng.Intn(256))
		})
		negPaths = append(negPaths, path)
	}

	cfg := Config{
		PositivePaths: posPaths,
		NegativePaths: negPaths,
		StageCounts:   []int{2, 2},
		BaseWindow:    edge,
		Recall:        0.95,
	}

	var progressed []int
	result, err := Train(context.Background(), cfg, func(stageIndex, stageCount, negValid int) {
		progressed = append(progressed, stageIndex)
	})
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if len(result.Stages) == 0 {
		t.Fatal("expected at least one trained stage")
	}
	if len(progressed) != len(result.Stages) {
		t.Errorf("progress callbacks = %d, want %d", len(progressed), len(result.Stages))
	}
}

func TestTrainRejectsEmptyStageCounts(t *testing.T) {
	cfg := Config{
		PositivePaths: []string{"x.png"},
		NegativePaths: []string{"y.png"},
		BaseWindow:    24,
	}
	if _, err := Train(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected an error for empty stage counts")
	}
}
