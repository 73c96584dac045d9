package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	StagingDir string `toml:"staging_dir"`
	LogDir     string `toml:"log_dir"`
	AssetsDir  string `toml:"assets_dir"`
	APIBind    string `toml:"api_bind"`
	APIToken   string `toml:"api_token"`
}

// Research contains thresholds and limits for the research aggregation stage.
type Research struct {
	MinCitations    int     `toml:"min_citations"`
	MinQuality      float64 `toml:"min_quality"`
	MaxCitations    int     `toml:"max_citations"`
	ProviderTimeout int     `toml:"provider_timeout"`
	MaxParallel     int     `toml:"max_parallel"`
}

// LLM contains connection settings for the content drafting backends.
// FallbackModels is the ordered chain tried after Model fails or produces
// invalid output.
type LLM struct {
	APIKey         string   `toml:"api_key"`
	BaseURL        string   `toml:"base_url"`
	Model          string   `toml:"model"`
	FallbackModels []string `toml:"fallback_models"`
	Referer        string   `toml:"referer"`
	Title          string   `toml:"title"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
	WordsPerMinute int      `toml:"words_per_minute"`
}

// Naming contains canonical name allocation settings.
type Naming struct {
	EvergreenFloor int    `toml:"evergreen_floor"`
	LockDir        string `toml:"lock_dir"`
}

// TTS contains connection settings for the text-to-speech backend.
// Voices maps speaker roles (HOST, EXPERT, QUESTIONER) to default voice names;
// per-request overrides take precedence.
type TTS struct {
	APIKey         string            `toml:"api_key"`
	BaseURL        string            `toml:"base_url"`
	Voices         map[string]string `toml:"voices"`
	MaxParallel    int               `toml:"max_parallel"`
	SegmentTimeout int               `toml:"segment_timeout"`
	SegmentRetries int               `toml:"segment_retries"`
	TimeoutSeconds int               `toml:"timeout_seconds"`
}

// Audio contains assembly settings for the synthesized episode file.
type Audio struct {
	IntroClip       string `toml:"intro_clip"`
	OutroClip       string `toml:"outro_clip"`
	BitrateKbps     int    `toml:"bitrate_kbps"`
	AssemblyTimeout int    `toml:"assembly_timeout"`
}

// Storage selects and configures the artifact object store backend.
type Storage struct {
	Backend       string `toml:"backend"`
	Bucket        string `toml:"bucket"`
	Region        string `toml:"region"`
	Endpoint      string `toml:"endpoint"`
	AccessKey     string `toml:"access_key"`
	SecretKey     string `toml:"secret_key"`
	PublicBaseURL string `toml:"public_base_url"`
	LocalDir      string `toml:"local_dir"`
}

// Feed contains syndication feed channel metadata and the reconciliation schedule.
type Feed struct {
	Title        string `toml:"title"`
	Link         string `toml:"link"`
	Description  string `toml:"description"`
	Author       string `toml:"author"`
	Email        string `toml:"email"`
	ImageURL     string `toml:"image_url"`
	Language     string `toml:"language"`
	SyncSchedule string `toml:"sync_schedule"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	JobCompleted   bool   `toml:"job_completed"`
	JobFailed      bool   `toml:"job_failed"`
	FeedSync       bool   `toml:"feed_sync"`
	Errors         bool   `toml:"errors"`
}

// Workflow contains daemon worker pool timing, intervals, and per-stage timeouts.
type Workflow struct {
	Workers            int `toml:"workers"`
	QueuePollInterval  int `toml:"queue_poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
	HeartbeatInterval  int `toml:"heartbeat_interval"`
	HeartbeatTimeout   int `toml:"heartbeat_timeout"`
	ResearchTimeout    int `toml:"research_timeout"`
	DraftTimeout       int `toml:"draft_timeout"`
	NamingTimeout      int `toml:"naming_timeout"`
	SynthesisTimeout   int `toml:"synthesis_timeout"`
	CatalogTimeout     int `toml:"catalog_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format         string            `toml:"format"`
	Level          string            `toml:"level"`
	RetentionDays  int               `toml:"retention_days"`
	StageOverrides map[string]string `toml:"stage_overrides"`
}

// Config encapsulates all configuration values for Copernicus.
//
// Configuration sections by subsystem:
//   - Paths: directories and API bind address
//   - Research: citation thresholds and provider limits
//   - LLM: drafting backend connection and fallback chain
//   - Naming: canonical name allocation
//   - TTS: voice synthesis backend and role voice defaults
//   - Audio: episode assembly settings
//   - Storage: artifact object store backend (s3 or local)
//   - Feed: syndication channel metadata and sync schedule
//   - Notifications: ntfy push notification settings
//   - Workflow: worker pool intervals and per-stage timeouts
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Research      Research      `toml:"research"`
	LLM           LLM           `toml:"llm"`
	Naming        Naming        `toml:"naming"`
	TTS           TTS           `toml:"tts"`
	Audio         Audio         `toml:"audio"`
	Storage       Storage       `toml:"storage"`
	Feed          Feed          `toml:"feed"`
	Notifications Notifications `toml:"notifications"`
	Workflow      Workflow      `toml:"workflow"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/copernicus/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/copernicus/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("copernicus.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.LogDir, c.Naming.LockDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Storage.Backend == StorageBackendLocal && strings.TrimSpace(c.Storage.LocalDir) != "" {
		if err := os.MkdirAll(c.Storage.LocalDir, 0o755); err != nil {
			return fmt.Errorf("create local storage directory %q: %w", c.Storage.LocalDir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// LLMConfig contains resolved LLM connection settings for one backend model.
type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// DrafterBackends returns the ordered list of LLM backend configurations:
// the primary model followed by the configured fallback chain.
func (c *Config) DrafterBackends() []LLMConfig {
	base := LLMConfig{
		APIKey:         strings.TrimSpace(c.LLM.APIKey),
		BaseURL:        strings.TrimSpace(c.LLM.BaseURL),
		Referer:        strings.TrimSpace(c.LLM.Referer),
		Title:          strings.TrimSpace(c.LLM.Title),
		TimeoutSeconds: c.LLM.TimeoutSeconds,
	}

	models := make([]string, 0, 1+len(c.LLM.FallbackModels))
	if model := strings.TrimSpace(c.LLM.Model); model != "" {
		models = append(models, model)
	}
	for _, model := range c.LLM.FallbackModels {
		if trimmed := strings.TrimSpace(model); trimmed != "" {
			models = append(models, trimmed)
		}
	}

	backends := make([]LLMConfig, 0, len(models))
	for _, model := range models {
		cfg := base
		cfg.Model = model
		backends = append(backends, cfg)
	}
	return backends
}

// GetLLM returns the primary drafting backend configuration.
func (c *Config) GetLLM() LLMConfig {
	backends := c.DrafterBackends()
	if len(backends) == 0 {
		return LLMConfig{}
	}
	return backends[0]
}
