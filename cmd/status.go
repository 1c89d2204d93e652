package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var statusServerURL string

var statusCmd = &cobra.Command{
	Use:   "status [job-id]",
	Short: "Query a running server for job status",
	Long: `Queries a facecascade server for job status.
If no job-id is given, lists all jobs; otherwise shows detailed status
for that job.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusServerURL, "server", "http://localhost:8080", "Server URL")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return listJobs(statusServerURL + "/api/v1/jobs")
	}
	jobID := args[0]
	return getJobStatus(fmt.Sprintf("%s/api/v1/jobs/%s/status", statusServerURL, jobID), jobID)
}

func listJobs(url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned error: %s", string(body))
	}

	var jobs []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&jobs); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if len(jobs) == 0 {
		fmt.Println("No jobs found")
		return nil
	}

	fmt.Printf("Found %d job(s):\n\n", len(jobs))
	for _, job := range jobs {
		fmt.Printf("Job ID: %s\n", job["id"])
		fmt.Printf("  State: %s\n", job["state"])
		if cfg, ok := job["config"].(map[string]any); ok {
			fmt.Printf("  Stages: %v\n", cfg["stageCounts"])
			fmt.Printf("  Window: %v\n", cfg["baseWindow"])
		}
		if n, ok := job["stagesTrained"].(float64); ok {
			fmt.Printf("  Stages trained: %v\n", n)
		}
		fmt.Println()
	}

	return nil
}

func getJobStatus(url, jobID string) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("job not found: %s", jobID)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned error: %s", string(body))
	}

	var status map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	fmt.Printf("Job: %s\n", status["id"])
	fmt.Printf("State: %s\n", status["state"])
	fmt.Println()

	if cfg, ok := status["config"].(map[string]any); ok {
		fmt.Println("Configuration:")
		fmt.Printf("  Positives: %v\n", cfg["positivePaths"])
		fmt.Printf("  Negatives: %v\n", cfg["negativePaths"])
		fmt.Printf("  Stage counts: %v\n", cfg["stageCounts"])
		fmt.Printf("  Window: %v\n", cfg["baseWindow"])
		fmt.Printf("  Recall target: %v\n", cfg["recall"])
		fmt.Println()
	}

	fmt.Println("Progress:")
	fmt.Printf("  Stages trained: %v / %v\n", status["stagesTrained"], status["stagesPlanned"])
	fmt.Printf("  Negatives still valid: %v\n", status["negativesValid"])

	if elapsed, ok := status["elapsedSeconds"].(float64); ok {
		fmt.Printf("  Elapsed: %s\n", time.Duration(elapsed*float64(time.Second)).Round(time.Millisecond))
	}

	if modelPath, ok := status["modelPath"].(string); ok && modelPath != "" {
		fmt.Printf("  Model: %s\n", modelPath)
	}

	if errMsg, ok := status["error"].(string); ok && errMsg != "" {
		fmt.Printf("\nError: %s\n", errMsg)
	}

	return nil
}
