package queue_test

import (
	"testing"

	"github.com/garywelz/copernicus-web-sub000/internal/queue"
)

func TestBeginStagePrimesProgress(t *testing.T) {
	job := &queue.Job{Status: queue.StatusDrafted, ErrorMessage: "old failure"}
	job.BeginStage(queue.StatusNaming)

	if job.Status != queue.StatusNaming {
		t.Fatalf("status = %q, want %q", job.Status, queue.StatusNaming)
	}
	if job.ProgressStage != "Naming" || job.ProgressMessage != "Naming started" {
		t.Fatalf("progress = %q / %q", job.ProgressStage, job.ProgressMessage)
	}
	if job.ErrorMessage != "" {
		t.Fatalf("error message not cleared: %q", job.ErrorMessage)
	}
	if job.LastHeartbeat == nil {
		t.Fatal("expected heartbeat to be set")
	}
}

func TestBeginStageKeepsExistingProgressText(t *testing.T) {
	job := &queue.Job{
		Status:          queue.StatusAccepted,
		ProgressStage:   "Retrying",
		ProgressMessage: "Retry requested",
	}
	job.BeginStage(queue.StatusResearching)

	if job.ProgressStage != "Retrying" || job.ProgressMessage != "Retry requested" {
		t.Fatalf("progress overwritten: %q / %q", job.ProgressStage, job.ProgressMessage)
	}
}

func TestStageLabel(t *testing.T) {
	cases := []struct {
		status queue.Status
		want   string
	}{
		{queue.StatusNamingAssigned, "Naming Assigned"},
		{queue.StatusSynthesizing, "Synthesizing"},
		{queue.Status(""), ""},
	}
	for _, tc := range cases {
		if got := queue.StageLabel(tc.status); got != tc.want {
			t.Errorf("StageLabel(%q) = %q, want %q", tc.status, got, tc.want)
		}
	}
}
