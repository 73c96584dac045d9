package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateResearch(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateNaming(); err != nil {
		return err
	}
	if err := c.validateTTS(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		return errors.New("paths.staging_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateResearch() error {
	if c.Research.MinQuality > 10 {
		return errors.New("research.min_quality must not exceed 10")
	}
	if c.Research.MaxCitations < c.Research.MinCitations {
		return errors.New("research.max_citations must be at least research.min_citations")
	}
	return nil
}

func (c *Config) validateLLM() error {
	if c.LLM.Model == "" {
		return errors.New("llm.model must be set")
	}
	seen := map[string]struct{}{c.LLM.Model: {}}
	for _, model := range c.LLM.FallbackModels {
		if _, ok := seen[model]; ok {
			return fmt.Errorf("llm.fallback_models contains duplicate model %q", model)
		}
		seen[model] = struct{}{}
	}
	return nil
}

func (c *Config) validateNaming() error {
	if c.Naming.EvergreenFloor < 100000 || c.Naming.EvergreenFloor > 999999 {
		return errors.New("naming.evergreen_floor must be a six-digit number")
	}
	return nil
}

func (c *Config) validateTTS() error {
	if len(c.TTS.Voices) == 0 {
		return errors.New("tts.voices must map at least one role to a voice")
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Backend {
	case StorageBackendLocal:
		return nil
	case StorageBackendS3:
		if c.Storage.Bucket == "" {
			return errors.New("storage.bucket must be set when storage.backend is \"s3\"")
		}
		if c.Storage.Region == "" && c.Storage.Endpoint == "" {
			return errors.New("storage.region or storage.endpoint must be set when storage.backend is \"s3\"")
		}
		return nil
	default:
		return fmt.Errorf("storage.backend: unsupported value %q (expected %q or %q)", c.Storage.Backend, StorageBackendS3, StorageBackendLocal)
	}
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.HeartbeatTimeout <= c.Workflow.HeartbeatInterval {
		return errors.New("workflow.heartbeat_timeout must exceed workflow.heartbeat_interval")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}
