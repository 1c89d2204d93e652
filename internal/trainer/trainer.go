// Package trainer orchestrates cascade training: it loads images, trains
// each stage in sequence, filters the negative pool between stages, and
// optionally checkpoints progress.
package trainer

import (
	"context"
	"log/slog"
	"time"

	"github.com/kestrelvision/facecascade/internal/candidates"
	"github.com/kestrelvision/facecascade/internal/cascade"
	"github.com/kestrelvision/facecascade/internal/cerrors"
	"github.com/kestrelvision/facecascade/internal/integral"
	"github.com/kestrelvision/facecascade/internal/stage"
	"github.com/kestrelvision/facecascade/internal/store"
)

// defaultRecall is the per-stage recall target used when Config.Recall is
// left at its zero value.
const defaultRecall = 0.999

// Config carries everything needed to train a cascade from scratch.
type Config struct {
	PositivePaths []string
	NegativePaths []string
	StageCounts   []int
	BaseWindow    int
	Recall        float64

	// Optional checkpointing. When Store and JobID are both set, a
	// checkpoint is saved after every stage completes.
	Store store.Store
	JobID string
	Trace *store.TraceWriter
}

// ProgressFunc, if supplied, is invoked after every completed stage.
type ProgressFunc func(stageIndex, stageCount int, negativesValid int)

// Train runs the full cascade training pipeline described in Config.
//
// If the negative pool is exhausted before all stages are trained, training
// stops early and the stages trained so far are returned without error.
// If the very first stage cannot be trained, Train returns InvalidResult.
func Train(ctx context.Context, cfg Config, onProgress ProgressFunc) (*cascade.Cascade, error) {
	if len(cfg.PositivePaths) == 0 || len(cfg.NegativePaths) == 0 {
		return nil, cerrors.EmptyInput("no positive or negative image paths")
	}
	if len(cfg.StageCounts) == 0 {
		return nil, cerrors.EmptyInput("no stage counts configured")
	}
	for i, count := range cfg.StageCounts {
		if count <= 0 {
			return nil, cerrors.InvalidInput("stage count must be positive")
		}
		_ = i
	}
	if cfg.BaseWindow <= 0 {
		return nil, cerrors.InvalidInput("base window must be positive")
	}

	recall := cfg.Recall
	if recall <= 0 {
		recall = defaultRecall
	}

	posLoader, err := integral.LoadGrayscale(cfg.PositivePaths)
	if err != nil {
		return nil, cerrors.InvalidInput("loading positives: " + err.Error())
	}
	if err := posLoader.RequireSquare(cfg.BaseWindow); err != nil {
		return nil, cerrors.InvalidInput(err.Error())
	}

	negLoader, err := integral.LoadGrayscale(cfg.NegativePaths)
	if err != nil {
		return nil, cerrors.InvalidInput("loading negatives: " + err.Error())
	}
	if err := negLoader.RequireSquare(cfg.BaseWindow); err != nil {
		return nil, cerrors.InvalidInput(err.Error())
	}

	posSamples := make([]stage.Sample, posLoader.Count())
	for i := range posSamples {
		posSamples[i] = stage.Sample{Source: posLoader.Table(i), WinY: 0, WinX: 0, Scale: 1.0}
	}
	negSamples := make([]stage.Sample, negLoader.Count())
	for i := range negSamples {
		negSamples[i] = stage.Sample{Source: negLoader.Table(i), WinY: 0, WinX: 0, Scale: 1.0}
	}

	posLoader.DropPixels()
	negLoader.DropPixels()

	negValid := make([]bool, len(negSamples))
	for i := range negValid {
		negValid[i] = true
	}

	result := &cascade.Cascade{BaseWindow: cfg.BaseWindow}

	for stageIdx, rounds := range cfg.StageCounts {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		if !anyValid(negValid) {
			slog.Warn("negative pool exhausted, stopping cascade training early", "stages_trained", len(result.Stages))
			break
		}

		pool := candidates.NewPool(cfg.BaseWindow)
		trained, err := stage.Train(stage.Config{
			Pool:          pool,
			Positives:     posSamples,
			Negatives:     negSamples,
			NegativeValid: negValid,
			Rounds:        rounds,
			Recall:        recall,
		})
		if err != nil {
			if stageIdx == 0 {
				return nil, cerrors.InvalidResult("first stage failed to train: " + err.Error())
			}
			slog.Warn("stage training reported empty input, stopping cleanly", "stage_index", stageIdx, "error", err)
			break
		}

		result.Stages = append(result.Stages, *trained)

		validCount := 0
		for i, s := range negSamples {
			if !negValid[i] {
				continue
			}
			if trained.Accept(s.Source, s.WinY, s.WinX, s.Scale) {
				validCount++
			} else {
				negValid[i] = false
			}
		}

		if onProgress != nil {
			onProgress(stageIdx, len(cfg.StageCounts), validCount)
		}

		if cfg.Store != nil && cfg.JobID != "" {
			checkpoint := &store.Checkpoint{
				JobID:         cfg.JobID,
				StagesDone:    stagesAsLines(result),
				NegativeValid: append([]bool(nil), negValid...),
				StageIndex:    len(result.Stages),
				Timestamp:     time.Now(),
				Config: store.JobConfig{
					PositivePaths: cfg.PositivePaths,
					NegativePaths: cfg.NegativePaths,
					StageCounts:   cfg.StageCounts,
					BaseWindow:    cfg.BaseWindow,
					Recall:        recall,
				},
			}
			if err := cfg.Store.SaveCheckpoint(cfg.JobID, checkpoint); err != nil {
				slog.Warn("failed to save checkpoint", "job_id", cfg.JobID, "error", err)
			}
		}

		if cfg.Trace != nil {
			cfg.Trace.Write(store.TraceEntry{
				StageIndex:      stageIdx,
				ClassifierCount: len(trained.Classifiers),
				Bias:            trained.Bias,
				NegativesValid:  validCount,
				Timestamp:       time.Now(),
			})
		}
	}

	if len(result.Stages) == 0 {
		return nil, cerrors.InvalidResult("no stages were trained")
	}
	return result, nil
}

// Resume continues training from a saved checkpoint. It re-parses the
// stages already completed, restores the negative valid-mask, and trains
// the remaining stage counts starting at checkpoint.StageIndex.
//
// The checkpoint's own config (paths, base window, recall) takes
// precedence; extraStageCounts, if non-empty, replaces the plan for the
// stages not yet trained (letting a caller extend or shorten a cascade
// on resume) and otherwise the original plan is continued.
func Resume(ctx context.Context, checkpoint *store.Checkpoint, extraStageCounts []int, chkStore store.Store, trace *store.TraceWriter, onProgress ProgressFunc) (*cascade.Cascade, error) {
	if err := checkpoint.Validate(); err != nil {
		return nil, cerrors.InvalidInput("invalid checkpoint: " + err.Error())
	}

	result := &cascade.Cascade{BaseWindow: checkpoint.Config.BaseWindow}
	for _, line := range checkpoint.StagesDone {
		stg, err := cascade.ParseStageLines(line)
		if err != nil {
			return nil, cerrors.InvalidInput("parsing checkpointed stage: " + err.Error())
		}
		result.Stages = append(result.Stages, *stg)
	}

	remainingCounts := checkpoint.Config.StageCounts[checkpoint.StageIndex:]
	if len(extraStageCounts) > 0 {
		remainingCounts = extraStageCounts
	}
	if len(remainingCounts) == 0 {
		return result, nil
	}

	negLoader, err := integral.LoadGrayscale(checkpoint.Config.NegativePaths)
	if err != nil {
		return nil, cerrors.InvalidInput("loading negatives: " + err.Error())
	}
	if err := negLoader.RequireSquare(checkpoint.Config.BaseWindow); err != nil {
		return nil, cerrors.InvalidInput(err.Error())
	}
	posLoader, err := integral.LoadGrayscale(checkpoint.Config.PositivePaths)
	if err != nil {
		return nil, cerrors.InvalidInput("loading positives: " + err.Error())
	}
	if err := posLoader.RequireSquare(checkpoint.Config.BaseWindow); err != nil {
		return nil, cerrors.InvalidInput(err.Error())
	}

	posSamples := make([]stage.Sample, posLoader.Count())
	for i := range posSamples {
		posSamples[i] = stage.Sample{Source: posLoader.Table(i), WinY: 0, WinX: 0, Scale: 1.0}
	}
	negSamples := make([]stage.Sample, negLoader.Count())
	for i := range negSamples {
		negSamples[i] = stage.Sample{Source: negLoader.Table(i), WinY: 0, WinX: 0, Scale: 1.0}
	}
	posLoader.DropPixels()
	negLoader.DropPixels()

	if len(checkpoint.NegativeValid) != len(negSamples) {
		return nil, cerrors.InvalidInput("checkpoint negative mask length does not match negative image count")
	}
	negValid := append([]bool(nil), checkpoint.NegativeValid...)

	recall := checkpoint.Config.Recall
	if recall <= 0 {
		recall = defaultRecall
	}

	startIdx := len(result.Stages)
	for i, rounds := range remainingCounts {
		stageIdx := startIdx + i
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		if !anyValid(negValid) {
			slog.Warn("negative pool exhausted, stopping resumed training early", "stages_trained", len(result.Stages))
			break
		}

		pool := candidates.NewPool(checkpoint.Config.BaseWindow)
		trained, err := stage.Train(stage.Config{
			Pool:          pool,
			Positives:     posSamples,
			Negatives:     negSamples,
			NegativeValid: negValid,
			Rounds:        rounds,
			Recall:        recall,
		})
		if err != nil {
			slog.Warn("stage training reported empty input, stopping resumed training cleanly", "stage_index", stageIdx, "error", err)
			break
		}

		result.Stages = append(result.Stages, *trained)

		validCount := 0
		for i, s := range negSamples {
			if !negValid[i] {
				continue
			}
			if trained.Accept(s.Source, s.WinY, s.WinX, s.Scale) {
				validCount++
			} else {
				negValid[i] = false
			}
		}

		if onProgress != nil {
			onProgress(stageIdx, stageIdx+len(remainingCounts)-i, validCount)
		}

		if chkStore != nil {
			updated := &store.Checkpoint{
				JobID:         checkpoint.JobID,
				StagesDone:    stagesAsLines(result),
				NegativeValid: append([]bool(nil), negValid...),
				StageIndex:    len(result.Stages),
				Timestamp:     time.Now(),
				Config:        checkpoint.Config,
			}
			if err := chkStore.SaveCheckpoint(checkpoint.JobID, updated); err != nil {
				slog.Warn("failed to save resumed checkpoint", "job_id", checkpoint.JobID, "error", err)
			}
		}

		if trace != nil {
			trace.Write(store.TraceEntry{
				StageIndex:      stageIdx,
				ClassifierCount: len(trained.Classifiers),
				Bias:            trained.Bias,
				NegativesValid:  validCount,
				Timestamp:       time.Now(),
			})
		}
	}

	if len(result.Stages) == 0 {
		return nil, cerrors.InvalidResult("no stages were trained")
	}
	return result, nil
}

func anyValid(mask []bool) bool {
	for _, v := range mask {
		if v {
			return true
		}
	}
	return false
}

// stagesAsLines serializes each completed stage as it would appear in the
// model file, for the checkpoint's StagesDone field.
func stagesAsLines(c *cascade.Cascade) []string {
	lines := make([]string, len(c.Stages))
	for i := range c.Stages {
		lines[i] = c.Stages[i].Lines()
	}
	return lines
}
