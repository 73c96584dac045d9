package testsupport

import (
	"path/filepath"
	"testing"

	"github.com/garywelz/copernicus-web-sub000/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StagingDir = filepath.Join(base, "staging")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.AssetsDir = filepath.Join(base, "assets")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Naming.LockDir = filepath.Join(base, "locks")
	cfgVal.Storage.Backend = config.StorageBackendLocal
	cfgVal.Storage.LocalDir = filepath.Join(base, "objects")
	cfgVal.Storage.PublicBaseURL = "https://cdn.example.test"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithLLMBackend points the drafting backend at a test server.
func WithLLMBackend(baseURL, model string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.LLM.APIKey = "test"
		b.cfg.LLM.BaseURL = baseURL
		b.cfg.LLM.Model = model
	}
}

// WithTTSBackend points the synthesis backend at a test server.
func WithTTSBackend(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.TTS.APIKey = "test"
		b.cfg.TTS.BaseURL = baseURL
	}
}

// WithNtfyTopic enables notifications against a test ntfy endpoint.
func WithNtfyTopic(topic string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = topic
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StagingDir)
}
