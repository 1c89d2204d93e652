package candidates

import (
	"testing"

	"github.com/kestrelvision/facecascade/internal/haar"
)

func TestGenerateRespectsGridAndWindow(t *testing.T) {
	const w = 24
	features := Generate(w)
	if len(features) == 0 {
		t.Fatal("Generate produced no candidates")
	}
	for _, f := range features {
		if err := f.Validate(w); err != nil {
			t.Errorf("generated feature %+v fails Validate: %v", f, err)
		}
	}
}

func TestGenerateSmallWindowOmitsOversizedTypes(t *testing.T) {
	// A 6x6 window is too small to fit a V3 (min extent 4x12) or D4
	// (min extent 8x8) feature at all.
	features := Generate(6)
	for _, f := range features {
		if f.Type == haar.V3 || f.Type == haar.D4 {
			t.Errorf("unexpected %v feature on a 6x6 window: %+v", f.Type, f)
		}
	}
}

func TestPoolPruneRemovesSimilarOnly(t *testing.T) {
	pool := NewPool(24)
	initial := pool.Count()
	if initial != len(pool.Features) {
		t.Fatalf("new pool count = %d, want %d", initial, len(pool.Features))
	}

	chosen := haar.Feature{SRow: 0, SCol: 0, LRow: 8, LCol: 8, Type: haar.D4}
	pool.Prune(chosen)

	if pool.Count() >= initial {
		t.Fatalf("Prune did not remove any candidates")
	}
	for _, idx := range pool.LiveIndices() {
		if haar.Similar(pool.Features[idx], chosen) {
			t.Errorf("live candidate %+v is still similar to pruned feature", pool.Features[idx])
		}
	}
	for i, alive := range pool.live {
		if !alive && !haar.Similar(pool.Features[i], chosen) {
			t.Errorf("pruned candidate %+v is not similar to the chosen feature", pool.Features[i])
		}
	}

	// Pruning is idempotent once nothing similar remains live.
	before := pool.Count()
	pool.Prune(chosen)
	if pool.Count() != before {
		t.Errorf("second Prune of same feature changed live count: %d -> %d", before, pool.Count())
	}
}

func TestLiveIndicesAscending(t *testing.T) {
	pool := NewPool(16)
	indices := pool.LiveIndices()
	for i := 1; i < len(indices); i++ {
		if indices[i] <= indices[i-1] {
			t.Fatalf("LiveIndices not ascending at %d: %d <= %d", i, indices[i], indices[i-1])
		}
	}
}
