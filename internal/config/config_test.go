package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/garywelz/copernicus-web-sub000/internal/config"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected missing config file to report exists=false")
	}
	if resolved != path {
		t.Fatalf("expected resolved path %q, got %q", path, resolved)
	}
	if cfg.Research.MinCitations != 3 {
		t.Fatalf("expected default min_citations 3, got %d", cfg.Research.MinCitations)
	}
	if cfg.Workflow.Workers != 2 {
		t.Fatalf("expected default workers 2, got %d", cfg.Workflow.Workers)
	}
	if cfg.Storage.Backend != config.StorageBackendLocal {
		t.Fatalf("expected default storage backend local, got %q", cfg.Storage.Backend)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
staging_dir = "` + filepath.Join(dir, "staging") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"

[llm]
model = "test/primary"
fallback_models = ["test/fallback", "  "]

[tts.voices]
host = "Matilda"
EXPERT = " Adam "
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be found")
	}

	backends := cfg.DrafterBackends()
	if len(backends) != 2 {
		t.Fatalf("expected 2 drafter backends, got %d", len(backends))
	}
	if backends[0].Model != "test/primary" || backends[1].Model != "test/fallback" {
		t.Fatalf("unexpected backend order: %+v", backends)
	}

	if voice := cfg.TTS.Voices["HOST"]; voice != "Matilda" {
		t.Fatalf("expected role keys uppercased, got voices %v", cfg.TTS.Voices)
	}
	if voice := cfg.TTS.Voices["EXPERT"]; voice != "Adam" {
		t.Fatalf("expected voice values trimmed, got %q", voice)
	}
}

func TestValidateRejectsBadStorageBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Backend = "ftp"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "storage.backend") {
		t.Fatalf("expected storage.backend error, got %v", err)
	}
}

func TestValidateRequiresBucketForS3(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Backend = config.StorageBackendS3
	cfg.Storage.Bucket = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for s3 backend without bucket")
	}
	cfg.Storage.Bucket = "episodes"
	cfg.Storage.Region = "us-east-1"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid s3 config, got %v", err)
	}
}

func TestValidateRejectsDuplicateFallbackModel(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.FallbackModels = []string{cfg.LLM.Model}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected duplicate fallback model to be rejected")
	}
}

func TestValidateEvergreenFloorBounds(t *testing.T) {
	cfg := config.Default()
	cfg.Naming.EvergreenFloor = 99
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected short evergreen floor to be rejected")
	}
}

func TestCreateSampleWritesParseableConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, _, exists, err := config.Load(path); err != nil || !exists {
		t.Fatalf("expected sample config to load (exists=%v): %v", exists, err)
	}
}
