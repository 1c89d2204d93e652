package main

import (
	"context"
	"fmt"
	"time"

	"github.com/kestrelvision/facecascade/internal/store"
	"github.com/kestrelvision/facecascade/internal/trainer"
	"github.com/spf13/cobra"
)

var (
	resumeDataDir    string
	resumeModelOut   string
	resumeExtraStage string
)

var resumeCmd = &cobra.Command{
	Use:   "resume [job-id]",
	Short: "Resume cascade training from a saved checkpoint",
	Long: `Reloads a checkpoint saved during a previous training run and
continues training the remaining stages.

Example:
  facecascade resume abc123 --out cascade.model`,
	Args: cobra.ExactArgs(1),
	RunE: runResume,
}

func init() {
	resumeCmd.Flags().StringVar(&resumeDataDir, "data-dir", "./data", "Checkpoint storage directory")
	resumeCmd.Flags().StringVar(&resumeModelOut, "out", "cascade.model", "Output model file path")
	resumeCmd.Flags().StringVar(&resumeExtraStage, "stages", "", "Comma-separated weak-learner counts to replace the remaining stage plan (optional)")
	rootCmd.AddCommand(resumeCmd)
}

func runResume(cmd *cobra.Command, args []string) error {
	jobID := args[0]

	checkpointStore, err := store.NewFSStore(resumeDataDir)
	if err != nil {
		return fmt.Errorf("failed to open checkpoint store: %w", err)
	}

	checkpoint, err := checkpointStore.LoadCheckpoint(jobID)
	if err != nil {
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}

	fmt.Printf("Loaded checkpoint for job %s\n", checkpoint.JobID)
	fmt.Printf("  Stages completed: %d/%d\n", checkpoint.StageIndex, len(checkpoint.Config.StageCounts))
	fmt.Printf("  Checkpoint time: %s\n\n", checkpoint.Timestamp.Format(time.RFC3339))

	var extraStages []int
	if resumeExtraStage != "" {
		extraStages, err = parseStageCounts(resumeExtraStage)
		if err != nil {
			return err
		}
	}

	start := time.Now()
	result, err := trainer.Resume(context.Background(), checkpoint, extraStages, checkpointStore, nil,
		func(stageIndex, stageCount, negValid int) {
			fmt.Printf("  stage %d complete, %d negatives still valid\n", stageIndex+1, negValid)
		})
	if err != nil {
		return fmt.Errorf("resume failed: %w", err)
	}

	if err := result.Save(resumeModelOut); err != nil {
		return fmt.Errorf("saving model: %w", err)
	}

	elapsed := time.Since(start)
	fmt.Printf("\nWrote %s (%d stages total, %s)\n", resumeModelOut, len(result.Stages), elapsed.Round(time.Millisecond))
	return nil
}
