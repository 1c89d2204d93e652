// Package stage trains a single AdaBoost ensemble: a sequence of weak
// classifiers selected greedily from a candidate pool, reweighted each
// round, with a final bias tuned to a target recall.
package stage

import (
	"log/slog"
	"math"
	"runtime"
	"sort"
	"sync"

	"github.com/kestrelvision/facecascade/internal/candidates"
	"github.com/kestrelvision/facecascade/internal/cascade"
	"github.com/kestrelvision/facecascade/internal/cerrors"
	"github.com/kestrelvision/facecascade/internal/haar"
	"github.com/kestrelvision/facecascade/internal/weaklearn"
)

// epsMin clamps weak-learner error away from the degenerate 0/1 bounds
// so log((1-e)/e) never blows up.
const epsMin = 1e-10

// Sample is a single training image's feature-value source, paired with
// the window it was extracted for.
type Sample struct {
	Source haar.IntegralSource
	WinY   int
	WinX   int
	Scale  float64
}

// Config carries one stage's training parameters.
type Config struct {
	Pool          *candidates.Pool
	Positives     []Sample
	Negatives     []Sample
	NegativeValid []bool // parallel to Negatives; false entries are excluded
	Rounds        int    // target weak-learner count T
	Recall        float64
}

// round holds the per-candidate error found during one weak-learner
// selection pass, used to pick the deterministic lowest-index winner.
type round struct {
	index      int
	err        float64
	classifier haar.Classifier
}

// Train runs AdaBoost for Config.Rounds rounds and returns the finished
// stage. It returns cerrors.EmptyInput if there are no valid negatives,
// and cerrors.InvalidResult if the candidate pool runs dry before any
// weak learner is appended.
func Train(cfg Config) (*cascade.Stage, error) {
	if len(cfg.Positives) == 0 {
		return nil, cerrors.EmptyInput("no positive samples")
	}

	validNeg := make([]Sample, 0, len(cfg.Negatives))
	for i, s := range cfg.Negatives {
		if cfg.NegativeValid == nil || cfg.NegativeValid[i] {
			validNeg = append(validNeg, s)
		}
	}
	if len(validNeg) == 0 {
		return nil, cerrors.EmptyInput("no valid negative samples")
	}

	posWeights := make([]float64, len(cfg.Positives))
	for i := range posWeights {
		posWeights[i] = 0.5 / float64(len(cfg.Positives))
	}
	negWeights := make([]float64, len(validNeg))
	for i := range negWeights {
		negWeights[i] = 0.5 / float64(len(validNeg))
	}

	stage := &cascade.Stage{}

	for round := 0; round < cfg.Rounds; round++ {
		live := cfg.Pool.LiveIndices()
		if len(live) == 0 {
			if len(stage.Classifiers) == 0 {
				return nil, cerrors.InvalidResult("candidate pool exhausted before any weak learner was trained")
			}
			slog.Warn("candidate pool exhausted early, stopping stage", "rounds_completed", round)
			break
		}

		err, idx, classifier := bestCandidate(cfg.Pool, live, cfg.Positives, posWeights, validNeg, negWeights)

		clampedErr := err
		if clampedErr < epsMin {
			slog.Warn("weak learner error underflow, clamping", "error", err, "clamp", epsMin)
			clampedErr = epsMin
		} else if clampedErr > 1-epsMin {
			slog.Warn("weak learner error overflow, clamping", "error", err, "clamp", 1-epsMin)
			clampedErr = 1 - epsMin
		}

		weight := math.Log((1 - clampedErr) / clampedErr)
		stage.Classifiers = append(stage.Classifiers, cascade.WeightedClassifier{
			Classifier: classifier,
			Weight:     weight,
		})

		reweight(classifier, cfg.Positives, posWeights, true, clampedErr)
		reweight(classifier, validNeg, negWeights, false, clampedErr)
		normalize(posWeights, negWeights)

		cfg.Pool.Prune(cfg.Pool.Features[idx])
	}

	stage.Bias = computeBias(stage, cfg.Positives, cfg.Recall)
	return stage, nil
}

// bestCandidate evaluates every live candidate in parallel and returns the
// lowest-error winner, breaking ties by the lowest candidate index.
func bestCandidate(pool *candidates.Pool, live []int, pos []Sample, posWeights []float64, neg []Sample, negWeights []float64) (bestErr float64, bestIdx int, bestClassifier haar.Classifier) {
	results := make([]round, len(live))

	workers := runtime.NumCPU()
	if workers < 1 {
		workers = 1
	}
	if workers > len(live) {
		workers = len(live)
	}

	var wg sync.WaitGroup
	jobs := make(chan int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				feature := pool.Features[live[j]]
				posSamples := make([]weaklearn.Sample, len(pos))
				for i, s := range pos {
					posSamples[i] = weaklearn.Sample{
						Value:  haar.NormalizedValue(s.Source, feature, s.WinY, s.WinX, s.Scale),
						Weight: posWeights[i],
					}
				}
				negSamples := make([]weaklearn.Sample, len(neg))
				for i, s := range neg {
					negSamples[i] = weaklearn.Sample{
						Value:  haar.NormalizedValue(s.Source, feature, s.WinY, s.WinX, s.Scale),
						Weight: negWeights[i],
					}
				}
				err, classifier := weaklearn.Train(feature, posSamples, negSamples)
				results[j] = round{index: live[j], err: err, classifier: classifier}
			}
		}()
	}
	for j := range live {
		jobs <- j
	}
	close(jobs)
	wg.Wait()

	bestErr = math.Inf(1)
	for _, r := range results {
		if r.err < bestErr || (r.err == bestErr && r.index < bestIdx) {
			bestErr = r.err
			bestIdx = r.index
			bestClassifier = r.classifier
		}
	}
	return bestErr, bestIdx, bestClassifier
}

// reweight applies w_i <- w_i * (e/(1-e))^(1-mistake_i) in place.
func reweight(classifier haar.Classifier, samples []Sample, weights []float64, isPos bool, err float64) {
	factor := err / (1 - err)
	for i, s := range samples {
		prediction := classifier.Decide(s.Source, s.WinY, s.WinX, s.Scale)
		wantLabel := 0
		if isPos {
			wantLabel = 1
		}
		mistake := 0
		if prediction != wantLabel {
			mistake = 1
		}
		if mistake == 0 {
			weights[i] *= factor
		}
	}
}

func normalize(posWeights, negWeights []float64) {
	var total float64
	for _, w := range posWeights {
		total += w
	}
	for _, w := range negWeights {
		total += w
	}
	if total == 0 {
		return
	}
	for i := range posWeights {
		posWeights[i] /= total
	}
	for i := range negWeights {
		negWeights[i] /= total
	}
}

// computeBias takes the floor(|pos|*(1-recall)+0.5)-th sorted positive
// score and returns the next float below it, so that, with Accept's strict
// comparison, every positive scoring at or above that element still passes.
func computeBias(stage *cascade.Stage, pos []Sample, recall float64) float64 {
	scores := make([]float64, len(pos))
	for i, s := range pos {
		scores[i] = stage.Score(s.Source, s.WinY, s.WinX, s.Scale)
	}
	sort.Float64s(scores)

	idx := int(math.Floor(float64(len(pos))*(1-recall) + 0.5))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(scores) {
		idx = len(scores) - 1
	}
	return math.Nextafter(scores[idx], math.Inf(-1))
}
