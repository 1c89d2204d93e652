// Package candidates enumerates the Haar feature candidate pool for a base
// window size and supports similarity-based pruning after each stage
// training round picks a winner.
package candidates

import "github.com/kestrelvision/facecascade/internal/haar"

type gridSpec struct {
	rowStep, colStep   int
	minLRow, minLCol   int
	typ                haar.FeatureType
}

// grid lists the stride and minimum extent for each feature type, per the
// 4-pixel candidate grid in the spec.
var grid = []gridSpec{
	{rowStep: 4, colStep: 8, minLRow: 4, minLCol: 8, typ: haar.V2},
	{rowStep: 8, colStep: 4, minLRow: 8, minLCol: 4, typ: haar.H2},
	{rowStep: 4, colStep: 12, minLRow: 4, minLCol: 12, typ: haar.V3},
	{rowStep: 8, colStep: 8, minLRow: 8, minLCol: 8, typ: haar.D4},
}

// Generate enumerates every (position, size, type) Haar feature on a base
// window of edge w, with origin and extent stepped on the type's grid and
// extents growing up to the largest multiple that still fits.
func Generate(w int) []haar.Feature {
	var out []haar.Feature
	for _, g := range grid {
		for sRow := 0; sRow+g.minLRow <= w; sRow += g.rowStep {
			for sCol := 0; sCol+g.minLCol <= w; sCol += g.colStep {
				for lRow := g.minLRow; sRow+lRow <= w; lRow += g.rowStep {
					for lCol := g.minLCol; sCol+lCol <= w; lCol += g.colStep {
						out = append(out, haar.Feature{
							SRow: sRow, SCol: sCol,
							LRow: lRow, LCol: lCol,
							Type: g.typ,
						})
					}
				}
			}
		}
	}
	return out
}

// Pool is the transient candidate pool a single stage's training consumes.
// Pruned candidates are tombstoned via a live bitset beside the dense
// feature slice rather than removed in place, so indices (and therefore
// tie-breaking) stay stable across a stage's rounds.
type Pool struct {
	Features []haar.Feature
	live     []bool
	liveCount int
}

// NewPool builds a fresh candidate pool for base window edge w.
func NewPool(w int) *Pool {
	features := Generate(w)
	live := make([]bool, len(features))
	for i := range live {
		live[i] = true
	}
	return &Pool{Features: features, live: live, liveCount: len(features)}
}

// LiveIndices returns the indices of candidates still live, ascending.
func (p *Pool) LiveIndices() []int {
	out := make([]int, 0, p.liveCount)
	for i, alive := range p.live {
		if alive {
			out = append(out, i)
		}
	}
	return out
}

// Count returns the number of live candidates remaining.
func (p *Pool) Count() int { return p.liveCount }

// Prune removes every live candidate similar to chosen from the pool for
// the remainder of the stage's training.
func (p *Pool) Prune(chosen haar.Feature) {
	for i, alive := range p.live {
		if !alive {
			continue
		}
		if haar.Similar(p.Features[i], chosen) {
			p.live[i] = false
			p.liveCount--
		}
	}
}
