package server

import "testing"

func TestJobManagerCreateJob(t *testing.T) {
	jm := NewJobManager()

	config := JobConfig{
		PositivePaths: []string{"pos.png"},
		NegativePaths: []string{"neg.png"},
		StageCounts:   []int{10, 20},
		BaseWindow:    24,
		Recall:        0.999,
	}

	job := jm.CreateJob(config)
	if job.ID == "" {
		t.Error("job ID should not be empty")
	}
	if job.State != StatePending {
		t.Errorf("initial state = %s, want pending", job.State)
	}
	if job.Config.BaseWindow != 24 {
		t.Error("config not stored correctly")
	}
}

func TestJobManagerGetJob(t *testing.T) {
	jm := NewJobManager()
	job := jm.CreateJob(JobConfig{PositivePaths: []string{"p.png"}, NegativePaths: []string{"n.png"}, StageCounts: []int{5}, BaseWindow: 24})

	retrieved, exists := jm.GetJob(job.ID)
	if !exists || retrieved.ID != job.ID {
		t.Fatal("expected to retrieve the created job")
	}

	if _, exists := jm.GetJob("nonexistent"); exists {
		t.Error("should not find nonexistent job")
	}
}

func TestJobManagerUpdateJob(t *testing.T) {
	jm := NewJobManager()
	job := jm.CreateJob(JobConfig{PositivePaths: []string{"p.png"}, NegativePaths: []string{"n.png"}, StageCounts: []int{5}, BaseWindow: 24})

	err := jm.UpdateJob(job.ID, func(j *Job) {
		j.State = StateRunning
		j.StagesTrained = 1
	})
	if err != nil {
		t.Fatalf("UpdateJob: %v", err)
	}

	got, _ := jm.GetJob(job.ID)
	if got.State != StateRunning || got.StagesTrained != 1 {
		t.Errorf("update did not apply: %+v", got)
	}

	if err := jm.UpdateJob("missing", func(j *Job) {}); err == nil {
		t.Error("expected an error updating a missing job")
	}
}

func TestJobManagerListAndRunningJobs(t *testing.T) {
	jm := NewJobManager()
	cfg := JobConfig{PositivePaths: []string{"p.png"}, NegativePaths: []string{"n.png"}, StageCounts: []int{5}, BaseWindow: 24}

	a := jm.CreateJob(cfg)
	jm.CreateJob(cfg)
	jm.UpdateJob(a.ID, func(j *Job) { j.State = StateRunning })

	if len(jm.ListJobs()) != 2 {
		t.Errorf("ListJobs() len = %d, want 2", len(jm.ListJobs()))
	}
	running := jm.GetRunningJobs()
	if len(running) != 1 || running[0].ID != a.ID {
		t.Errorf("GetRunningJobs() = %+v, want just job %s", running, a.ID)
	}
}
