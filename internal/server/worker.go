package server

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/kestrelvision/facecascade/internal/store"
	"github.com/kestrelvision/facecascade/internal/trainer"
)

// runJob trains a cascade in the background, broadcasting a progress
// event and (if checkpointStore is set) saving a checkpoint after every
// stage.
func runJob(ctx context.Context, jm *JobManager, checkpointStore store.Store, modelDir, jobID string) {
	job, exists := jm.GetJob(jobID)
	if !exists {
		slog.Error("runJob: job not found", "job_id", jobID)
		return
	}

	if err := jm.UpdateJob(jobID, func(j *Job) { j.State = StateRunning }); err != nil {
		slog.Error("runJob: failed to mark running", "job_id", jobID, "error", err)
		return
	}

	slog.Info("starting training job", "job_id", jobID, "stage_count", len(job.Config.StageCounts))

	cfg := trainer.Config{
		PositivePaths: job.Config.PositivePaths,
		NegativePaths: job.Config.NegativePaths,
		StageCounts:   job.Config.StageCounts,
		BaseWindow:    job.Config.BaseWindow,
		Recall:        job.Config.Recall,
		Store:         checkpointStore,
		JobID:         jobID,
	}

	onProgress := func(stageIndex, stageCount, negativesValid int) {
		jm.UpdateJob(jobID, func(j *Job) {
			j.StagesTrained = stageIndex + 1
			j.NegativesValid = negativesValid
		})
		jm.broadcaster.Broadcast(ProgressEvent{
			JobID:          jobID,
			State:          StateRunning,
			StagesTrained:  stageIndex + 1,
			StagesPlanned:  stageCount,
			NegativesValid: negativesValid,
			Timestamp:      time.Now(),
		})
	}

	result, err := trainer.Train(ctx, cfg, onProgress)
	if err != nil {
		markJobFailed(jm, jobID, err)
		return
	}

	modelPath := filepath.Join(modelDir, jobID+".model")
	if err := result.Save(modelPath); err != nil {
		markJobFailed(jm, jobID, fmt.Errorf("save model: %w", err))
		return
	}

	now := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCompleted
		j.ModelPath = modelPath
		j.EndTime = &now
	})
	jm.broadcaster.Broadcast(ProgressEvent{
		JobID:         jobID,
		State:         StateCompleted,
		StagesTrained: len(result.Stages),
		StagesPlanned: len(job.Config.StageCounts),
		Timestamp:     now,
	})
	slog.Info("training job completed", "job_id", jobID, "stages_trained", len(result.Stages), "model_path", modelPath)
}

func markJobFailed(jm *JobManager, jobID string, err error) {
	now := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateFailed
		j.Error = err.Error()
		j.EndTime = &now
	})
	jm.broadcaster.Broadcast(ProgressEvent{
		JobID:     jobID,
		State:     StateFailed,
		Timestamp: now,
	})
	slog.Error("training job failed", "job_id", jobID, "error", err)
}
