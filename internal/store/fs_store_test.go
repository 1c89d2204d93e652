package store

import (
	"errors"
	"testing"
	"time"
)

func sampleCheckpoint(jobID string) *Checkpoint {
	return &Checkpoint{
		JobID:         jobID,
		StagesDone:    []string{"0.5 1\n0 0 4 8 0 1.25 0\n0.916" },
		NegativeValid: []bool{true, false, true},
		StageIndex:    1,
		Timestamp:     time.Now(),
		Config: JobConfig{
			PositivePaths: []string{"a.png", "b.png"},
			NegativePaths: []string{"c.png"},
			StageCounts:   []int{10, 20},
			BaseWindow:    24,
			Recall:        0.999,
		},
	}
}

func TestFSStoreSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFSStore(dir)
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}

	cp := sampleCheckpoint("job-1")
	if err := s.SaveCheckpoint("job-1", cp); err != nil {
		t.Fatalf("SaveCheckpoint: %v", err)
	}

	loaded, err := s.LoadCheckpoint("job-1")
	if err != nil {
		t.Fatalf("LoadCheckpoint: %v", err)
	}
	if loaded.StageIndex != cp.StageIndex {
		t.Errorf("StageIndex = %d, want %d", loaded.StageIndex, cp.StageIndex)
	}
	if len(loaded.NegativeValid) != len(cp.NegativeValid) {
		t.Errorf("NegativeValid length = %d, want %d", len(loaded.NegativeValid), len(cp.NegativeValid))
	}
}

func TestFSStoreLoadMissingReturnsNotFound(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFSStore(dir)
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}

	_, err = s.LoadCheckpoint("does-not-exist")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadCheckpoint missing job: err = %v, want ErrNotFound", err)
	}
}

func TestFSStoreListAndDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFSStore(dir)
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}

	for _, id := range []string{"job-a", "job-b"} {
		if err := s.SaveCheckpoint(id, sampleCheckpoint(id)); err != nil {
			t.Fatalf("SaveCheckpoint(%s): %v", id, err)
		}
	}

	infos, err := s.ListCheckpoints()
	if err != nil {
		t.Fatalf("ListCheckpoints: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("len(infos) = %d, want 2", len(infos))
	}

	if err := s.DeleteCheckpoint("job-a"); err != nil {
		t.Fatalf("DeleteCheckpoint: %v", err)
	}
	if _, err := s.LoadCheckpoint("job-a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestCheckpointValidate(t *testing.T) {
	cp := sampleCheckpoint("job-1")
	if err := cp.Validate(); err != nil {
		t.Errorf("Validate() on well-formed checkpoint: %v", err)
	}

	bad := sampleCheckpoint("job-1")
	bad.JobID = ""
	if err := bad.Validate(); err == nil {
		t.Error("Validate() did not catch empty JobID")
	}
}
