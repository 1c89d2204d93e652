package postprocess

import (
	"math/rand"
	"reflect"
	"sort"
	"testing"

	"github.com/kestrelvision/facecascade/internal/geom"
)

// TestS4ClusterMerging is the worked example: three raw rectangles, two of
// which overlap heavily, merge into two final rectangles.
func TestS4ClusterMerging(t *testing.T) {
	input := []geom.Rect{
		{Y: 0, X: 0, H: 20, W: 20},
		{Y: 5, X: 5, H: 20, W: 20},
		{Y: 100, X: 100, H: 20, W: 20},
	}
	got := Cluster(input)

	want := []geom.Rect{
		{Y: 2, X: 2, H: 20, W: 20},
		{Y: 100, X: 100, H: 20, W: 20},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Cluster() = %+v, want %+v", got, want)
	}
}

// TestClusterCommutativity verifies that permuting the raw detection list
// yields the same final cluster set, by sorting both outputs before
// comparing.
func TestClusterCommutativity(t *testing.T) {
	base := []geom.Rect{
		{Y: 0, X: 0, H: 24, W: 24},
		{Y: 2, X: 2, H: 24, W: 24},
		{Y: 3, X: 1, H: 24, W: 24},
		{Y: 200, X: 200, H: 24, W: 24},
		{Y: 202, X: 199, H: 24, W: 24},
		{Y: 500, X: 500, H: 24, W: 24},
	}

	rng := rand.New(rand.NewSource(7))
	baseline := Cluster(base)
	sortRects(baseline)

	for trial := 0; trial < 20; trial++ {
		permuted := make([]geom.Rect, len(base))
		copy(permuted, base)
		rng.Shuffle(len(permuted), func(i, j int) { permuted[i], permuted[j] = permuted[j], permuted[i] })

		got := Cluster(permuted)
		sortRects(got)

		if !reflect.DeepEqual(got, baseline) {
			t.Fatalf("trial %d: Cluster(permuted) = %+v, want %+v", trial, got, baseline)
		}
	}
}

func sortRects(rects []geom.Rect) {
	sort.Slice(rects, func(i, j int) bool {
		if rects[i].Y != rects[j].Y {
			return rects[i].Y < rects[j].Y
		}
		return rects[i].X < rects[j].X
	})
}

func TestClusterEmptyInput(t *testing.T) {
	if got := Cluster(nil); got != nil {
		t.Errorf("Cluster(nil) = %+v, want nil", got)
	}
}
