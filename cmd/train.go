package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kestrelvision/facecascade/internal/trainer"
	"github.com/spf13/cobra"
)

var (
	posDir        string
	negDir        string
	stageCountsIn string
	baseWindow    int
	recall        float64
	modelOut      string
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train a cascade from positive and negative image directories",
	Long:  `Trains an ordered sequence of AdaBoost stages and writes the resulting cascade model.`,
	RunE:  runTrain,
}

func init() {
	trainCmd.Flags().StringVar(&posDir, "pos", "", "Directory of positive (face) images, all square and sized to --window (required)")
	trainCmd.Flags().StringVar(&negDir, "neg", "", "Directory of negative (non-face) images, all square and sized to --window (required)")
	trainCmd.Flags().StringVar(&stageCountsIn, "stages", "10,20,20", "Comma-separated weak-learner count per stage")
	trainCmd.Flags().IntVar(&baseWindow, "window", 24, "Base window edge length")
	trainCmd.Flags().Float64Var(&recall, "recall", 0.999, "Per-stage recall target")
	trainCmd.Flags().StringVar(&modelOut, "out", "cascade.model", "Output model file path")

	trainCmd.MarkFlagRequired("pos")
	trainCmd.MarkFlagRequired("neg")
	rootCmd.AddCommand(trainCmd)
}

func runTrain(cmd *cobra.Command, args []string) error {
	stageCounts, err := parseStageCounts(stageCountsIn)
	if err != nil {
		return err
	}

	posPaths, err := listImageFiles(posDir)
	if err != nil {
		return fmt.Errorf("listing positives: %w", err)
	}
	negPaths, err := listImageFiles(negDir)
	if err != nil {
		return fmt.Errorf("listing negatives: %w", err)
	}

	slog.Info("starting cascade training",
		"positives", len(posPaths), "negatives", len(negPaths),
		"stages", stageCounts, "window", baseWindow, "recall", recall)

	start := time.Now()
	cfg := trainer.Config{
		PositivePaths: posPaths,
		NegativePaths: negPaths,
		StageCounts:   stageCounts,
		BaseWindow:    baseWindow,
		Recall:        recall,
	}

	result, err := trainer.Train(context.Background(), cfg, func(stageIndex, stageCount, negValid int) {
		slog.Info("stage complete", "stage", stageIndex+1, "of", stageCount, "negatives_valid", negValid)
	})
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}

	if err := result.Save(modelOut); err != nil {
		return fmt.Errorf("saving model: %w", err)
	}

	elapsed := time.Since(start)
	fmt.Printf("Wrote %s (%d stages, %s)\n", modelOut, len(result.Stages), elapsed.Round(time.Millisecond))
	return nil
}

func parseStageCounts(s string) ([]int, error) {
	fields := strings.Split(s, ",")
	counts := make([]int, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("invalid stage count %q: %w", f, err)
		}
		counts = append(counts, n)
	}
	if len(counts) == 0 {
		return nil, fmt.Errorf("no stage counts given")
	}
	return counts, nil
}

func listImageFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := strings.ToLower(e.Name())
		if strings.HasSuffix(name, ".png") || strings.HasSuffix(name, ".jpg") || strings.HasSuffix(name, ".jpeg") {
			paths = append(paths, dir+string(os.PathSeparator)+e.Name())
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no image files found in %s", dir)
	}
	return paths, nil
}
