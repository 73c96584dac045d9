package drafter

import (
	"testing"

	"github.com/garywelz/copernicus-web-sub000/internal/config"
	"github.com/garywelz/copernicus-web-sub000/internal/queue"
)

func TestRequestForHonorsIntakeParameters(t *testing.T) {
	cfg := config.Default()
	s := NewStage(&cfg, nil, nil)

	job := &queue.Job{
		Topic:         "Neutrino oscillation",
		Category:      "physics",
		Kind:          "evergreen",
		Expertise:     "beginner",
		TargetMinutes: 10,
	}
	req := s.requestFor(job)
	if req.TargetMinutes != 10 {
		t.Errorf("target minutes = %d, want the 10 requested at intake", req.TargetMinutes)
	}
	if req.Expertise != "beginner" {
		t.Errorf("expertise = %q, want beginner", req.Expertise)
	}
}

func TestRequestForDefaultsWhenUnset(t *testing.T) {
	cfg := config.Default()
	s := NewStage(&cfg, nil, nil)

	req := s.requestFor(&queue.Job{Topic: "Prime gaps", Category: "mathematics", Kind: "evergreen"})
	if req.TargetMinutes != DefaultTargetMinutes {
		t.Errorf("target minutes = %d, want %d", req.TargetMinutes, DefaultTargetMinutes)
	}
	if req.Expertise != "intermediate" {
		t.Errorf("expertise = %q, want intermediate", req.Expertise)
	}
}

func TestRequestForMergesVoiceRoles(t *testing.T) {
	cfg := config.Default()
	cfg.TTS.Voices = map[string]string{"HOST": "nova", "EXPERT": "onyx"}
	s := NewStage(&cfg, nil, nil)

	job := &queue.Job{
		Topic:      "Dark matter",
		Category:   "physics",
		Kind:       "evergreen",
		VoicesJSON: `{"QUESTIONER": "alloy"}`,
	}
	req := s.requestFor(job)
	want := []string{"EXPERT", "HOST", "QUESTIONER"}
	if len(req.Roles) != len(want) {
		t.Fatalf("roles = %v, want %v", req.Roles, want)
	}
	for i, role := range want {
		if req.Roles[i] != role {
			t.Fatalf("roles = %v, want %v", req.Roles, want)
		}
	}
}
