// Package store persists and resumes cascade training checkpoints.
package store

import (
	"fmt"
	"time"
)

// JobConfig is the checkpoint's copy of a training job's configuration,
// kept separate from the server package to avoid an import cycle.
type JobConfig struct {
	PositivePaths []string `json:"positivePaths"`
	NegativePaths []string `json:"negativePaths"`
	StageCounts   []int    `json:"stageCounts"`
	BaseWindow    int      `json:"baseWindow"`
	Recall        float64  `json:"recall"`
}

// Checkpoint captures cascade training progress between stages.
//
// Only the stages completed so far and the negative valid-mask are saved;
// in-flight weak-learner weights within a partially trained stage are not
// preserved. Resuming re-enters the trainer at the first incomplete stage,
// replaying that stage's AdaBoost rounds from scratch against the saved
// valid-mask.
type Checkpoint struct {
	JobID string `json:"jobId"`

	// StagesDone holds the model-file lines for every stage trained so far,
	// one stage block per entry in the same text format Save/Load use; on
	// resume each block is parsed by cascade.ParseStageLines.
	StagesDone []string `json:"stagesDone"`

	// NegativeValid is the surviving negative mask after the last
	// completed stage.
	NegativeValid []bool `json:"negativeValid"`

	StageIndex int       `json:"stageIndex"`
	Timestamp  time.Time `json:"timestamp"`
	Config     JobConfig `json:"config"`
}

// CheckpointInfo is a checkpoint's metadata, without the bulky per-negative
// mask, for cheap listing.
type CheckpointInfo struct {
	JobID         string    `json:"jobId"`
	StageIndex    int       `json:"stageIndex"`
	StagesPlanned int       `json:"stagesPlanned"`
	Timestamp     time.Time `json:"timestamp"`
}

// ToInfo converts a full Checkpoint to its metadata-only CheckpointInfo.
func (c *Checkpoint) ToInfo() CheckpointInfo {
	return CheckpointInfo{
		JobID:         c.JobID,
		StageIndex:    c.StageIndex,
		StagesPlanned: len(c.Config.StageCounts),
		Timestamp:     c.Timestamp,
	}
}

// Validate checks required fields on a checkpoint about to be saved.
func (c *Checkpoint) Validate() error {
	if c.JobID == "" {
		return &ValidationError{Field: "JobID", Reason: "cannot be empty"}
	}
	if c.StageIndex < 0 {
		return &ValidationError{Field: "StageIndex", Reason: "cannot be negative"}
	}
	if c.StageIndex != len(c.StagesDone) {
		return &ValidationError{Field: "StageIndex", Reason: fmt.Sprintf("must equal len(StagesDone)=%d", len(c.StagesDone))}
	}
	if len(c.Config.PositivePaths) == 0 {
		return &ValidationError{Field: "Config.PositivePaths", Reason: "cannot be empty"}
	}
	if len(c.Config.NegativePaths) == 0 {
		return &ValidationError{Field: "Config.NegativePaths", Reason: "cannot be empty"}
	}
	if len(c.Config.StageCounts) == 0 {
		return &ValidationError{Field: "Config.StageCounts", Reason: "cannot be empty"}
	}
	if c.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Reason: "cannot be zero"}
	}
	return nil
}

// ValidationError reports a checkpoint field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}

// IsCompatible reports whether a checkpoint can be resumed under config,
// requiring the same image sets and base window.
func (c *Checkpoint) IsCompatible(config JobConfig) error {
	if !equalStrings(c.Config.PositivePaths, config.PositivePaths) {
		return &CompatibilityError{Field: "PositivePaths"}
	}
	if !equalStrings(c.Config.NegativePaths, config.NegativePaths) {
		return &CompatibilityError{Field: "NegativePaths"}
	}
	if c.Config.BaseWindow != config.BaseWindow {
		return &CompatibilityError{
			Field:    "BaseWindow",
			Expected: fmt.Sprintf("%d", c.Config.BaseWindow),
			Actual:   fmt.Sprintf("%d", config.BaseWindow),
		}
	}
	return nil
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// CompatibilityError reports a mismatch between a checkpoint's job
// configuration and the configuration a resume was attempted under.
type CompatibilityError struct {
	Field    string
	Expected string
	Actual   string
}

func (e *CompatibilityError) Error() string {
	if e.Expected == "" && e.Actual == "" {
		return "compatibility error: " + e.Field + " mismatch"
	}
	return "compatibility error: " + e.Field + " mismatch (expected " + e.Expected + ", got " + e.Actual + ")"
}
