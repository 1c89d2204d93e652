package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/kestrelvision/facecascade/internal/store"
	"github.com/spf13/cobra"
)

var (
	jobsDataDir string
	keepLast    int
	olderThan   int
	forceClean  bool
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect and manage training checkpoints",
	Long:  `Lists and prunes the checkpoints a training run has saved to disk.`,
}

var listJobsCmd = &cobra.Command{
	Use:   "list",
	Short: "List checkpoints",
	RunE:  runListJobs,
}

var cleanJobsCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete old checkpoints",
	Long:  `Deletes checkpoints by retention policy: --keep-last, --older-than, or both.`,
	RunE:  runCleanJobs,
}

func init() {
	jobsCmd.AddCommand(listJobsCmd)
	jobsCmd.AddCommand(cleanJobsCmd)

	jobsCmd.PersistentFlags().StringVar(&jobsDataDir, "data-dir", "./data", "Checkpoint storage directory")

	cleanJobsCmd.Flags().IntVar(&keepLast, "keep-last", 0, "Keep only the N most recently checkpointed jobs (0 = keep all)")
	cleanJobsCmd.Flags().IntVar(&olderThan, "older-than", 0, "Delete checkpoints older than N days (0 = no age limit)")
	cleanJobsCmd.Flags().BoolVarP(&forceClean, "force", "f", false, "Skip confirmation prompt")

	rootCmd.AddCommand(jobsCmd)
}

func runListJobs(cmd *cobra.Command, args []string) error {
	checkpointStore, err := store.NewFSStore(jobsDataDir)
	if err != nil {
		return fmt.Errorf("failed to open checkpoint store: %w", err)
	}

	infos, err := checkpointStore.ListCheckpoints()
	if err != nil {
		return fmt.Errorf("failed to list checkpoints: %w", err)
	}
	if len(infos) == 0 {
		fmt.Println("No checkpoints found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "JOB ID\tTIMESTAMP\tSTAGE\tSIZE")
	fmt.Fprintln(w, "------\t---------\t-----\t----")

	for _, info := range infos {
		jobDir := filepath.Join(jobsDataDir, "jobs", info.JobID)
		size, err := dirSize(jobDir)
		sizeStr := "unknown"
		if err == nil {
			sizeStr = formatBytes(size)
		}

		displayID := info.JobID
		if len(displayID) > 12 {
			displayID = displayID[:12] + "..."
		}

		fmt.Fprintf(w, "%s\t%s\t%d/%d\t%s\n",
			displayID,
			info.Timestamp.Format("2006-01-02 15:04:05"),
			info.StageIndex, info.StagesPlanned,
			sizeStr,
		)
	}
	w.Flush()

	fmt.Printf("\nTotal checkpoints: %d\n", len(infos))
	return nil
}

func runCleanJobs(cmd *cobra.Command, args []string) error {
	if keepLast == 0 && olderThan == 0 {
		return fmt.Errorf("must specify either --keep-last or --older-than")
	}

	checkpointStore, err := store.NewFSStore(jobsDataDir)
	if err != nil {
		return fmt.Errorf("failed to open checkpoint store: %w", err)
	}

	infos, err := checkpointStore.ListCheckpoints()
	if err != nil {
		return fmt.Errorf("failed to list checkpoints: %w", err)
	}
	if len(infos) == 0 {
		fmt.Println("No checkpoints to clean.")
		return nil
	}

	toDelete := selectForDeletion(infos, keepLast, olderThan)
	if len(toDelete) == 0 {
		fmt.Println("No checkpoints match deletion criteria.")
		return nil
	}

	fmt.Printf("Found %d checkpoint(s) to delete:\n", len(toDelete))
	for _, info := range toDelete {
		fmt.Printf("  - %s (stage %d/%d, %s)\n",
			info.JobID, info.StageIndex, info.StagesPlanned,
			info.Timestamp.Format("2006-01-02 15:04:05"))
	}

	if !forceClean {
		fmt.Print("\nProceed with deletion? [y/N]: ")
		var response string
		fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	deleted, failed := 0, 0
	for _, info := range toDelete {
		if err := checkpointStore.DeleteCheckpoint(info.JobID); err != nil {
			fmt.Printf("failed to delete %s: %v\n", info.JobID, err)
			failed++
			continue
		}
		deleted++
	}

	fmt.Printf("\nDeleted %d checkpoint(s), %d failed.\n", deleted, failed)
	return nil
}

// selectForDeletion applies an age cutoff and/or a keep-last-N retention
// policy over the full checkpoint set, returning the union of both.
func selectForDeletion(infos []store.CheckpointInfo, keepLast, olderThanDays int) []store.CheckpointInfo {
	marked := make(map[string]store.CheckpointInfo)

	if olderThanDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -olderThanDays)
		for _, info := range infos {
			if info.Timestamp.Before(cutoff) {
				marked[info.JobID] = info
			}
		}
	}

	if keepLast > 0 && len(infos) > keepLast {
		sorted := make([]store.CheckpointInfo, len(infos))
		copy(sorted, infos)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })

		for i := 0; i < len(sorted)-keepLast; i++ {
			marked[sorted[i].JobID] = sorted[i]
		}
	}

	result := make([]store.CheckpointInfo, 0, len(marked))
	for _, info := range marked {
		result = append(result, info)
	}
	return result
}

func dirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
