package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeResearch()
	c.normalizeLLM()
	if err := c.normalizeNaming(); err != nil {
		return err
	}
	c.normalizeTTS()
	if err := c.normalizeAudio(); err != nil {
		return err
	}
	if err := c.normalizeStorage(); err != nil {
		return err
	}
	c.normalizeFeed()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.AssetsDir) == "" {
		c.Paths.AssetsDir = defaultAssetsDir
	}
	if c.Paths.AssetsDir, err = expandPath(c.Paths.AssetsDir); err != nil {
		return fmt.Errorf("paths.assets_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeResearch() {
	if c.Research.MinCitations <= 0 {
		c.Research.MinCitations = defaultMinCitations
	}
	if c.Research.MinQuality <= 0 {
		c.Research.MinQuality = defaultMinQuality
	}
	if c.Research.MaxCitations <= 0 {
		c.Research.MaxCitations = defaultMaxCitations
	}
	if c.Research.ProviderTimeout <= 0 {
		c.Research.ProviderTimeout = defaultProviderTimeout
	}
	if c.Research.MaxParallel <= 0 {
		c.Research.MaxParallel = defaultResearchParallel
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	cleaned := make([]string, 0, len(c.LLM.FallbackModels))
	for _, model := range c.LLM.FallbackModels {
		if trimmed := strings.TrimSpace(model); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	c.LLM.FallbackModels = cleaned
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	if c.LLM.WordsPerMinute <= 0 {
		c.LLM.WordsPerMinute = defaultWordsPerMinute
	}
}

func (c *Config) normalizeNaming() error {
	if c.Naming.EvergreenFloor <= 0 {
		c.Naming.EvergreenFloor = defaultEvergreenFloor
	}
	if strings.TrimSpace(c.Naming.LockDir) == "" {
		c.Naming.LockDir = defaultLockDir
	}
	var err error
	if c.Naming.LockDir, err = expandPath(c.Naming.LockDir); err != nil {
		return fmt.Errorf("naming.lock_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTTS() {
	c.TTS.APIKey = strings.TrimSpace(c.TTS.APIKey)
	c.TTS.BaseURL = strings.TrimSpace(c.TTS.BaseURL)
	if c.TTS.BaseURL == "" {
		c.TTS.BaseURL = defaultTTSBaseURL
	}
	if len(c.TTS.Voices) == 0 {
		c.TTS.Voices = defaultVoices()
	}
	normalized := make(map[string]string, len(c.TTS.Voices))
	for role, voice := range c.TTS.Voices {
		role = strings.ToUpper(strings.TrimSpace(role))
		voice = strings.TrimSpace(voice)
		if role == "" || voice == "" {
			continue
		}
		normalized[role] = voice
	}
	c.TTS.Voices = normalized
	if c.TTS.MaxParallel <= 0 {
		c.TTS.MaxParallel = defaultTTSParallel
	}
	if c.TTS.SegmentTimeout <= 0 {
		c.TTS.SegmentTimeout = defaultTTSSegmentTimeout
	}
	if c.TTS.SegmentRetries < 0 {
		c.TTS.SegmentRetries = defaultTTSSegmentRetries
	}
	if c.TTS.TimeoutSeconds <= 0 {
		c.TTS.TimeoutSeconds = defaultTTSTimeoutSeconds
	}
}

func (c *Config) normalizeAudio() error {
	var err error
	if strings.TrimSpace(c.Audio.IntroClip) != "" {
		if c.Audio.IntroClip, err = expandPath(c.Audio.IntroClip); err != nil {
			return fmt.Errorf("audio.intro_clip: %w", err)
		}
	}
	if strings.TrimSpace(c.Audio.OutroClip) != "" {
		if c.Audio.OutroClip, err = expandPath(c.Audio.OutroClip); err != nil {
			return fmt.Errorf("audio.outro_clip: %w", err)
		}
	}
	if c.Audio.BitrateKbps <= 0 {
		c.Audio.BitrateKbps = defaultAudioBitrateKbps
	}
	if c.Audio.AssemblyTimeout <= 0 {
		c.Audio.AssemblyTimeout = defaultAssemblyTimeout
	}
	return nil
}

func (c *Config) normalizeStorage() error {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.Storage.Backend == "" {
		c.Storage.Backend = StorageBackendLocal
	}
	c.Storage.Bucket = strings.TrimSpace(c.Storage.Bucket)
	c.Storage.Region = strings.TrimSpace(c.Storage.Region)
	c.Storage.Endpoint = strings.TrimSpace(c.Storage.Endpoint)
	c.Storage.PublicBaseURL = strings.TrimRight(strings.TrimSpace(c.Storage.PublicBaseURL), "/")
	if strings.TrimSpace(c.Storage.LocalDir) == "" {
		c.Storage.LocalDir = defaultLocalStorageDir
	}
	var err error
	if c.Storage.LocalDir, err = expandPath(c.Storage.LocalDir); err != nil {
		return fmt.Errorf("storage.local_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeFeed() {
	c.Feed.Title = strings.TrimSpace(c.Feed.Title)
	if c.Feed.Title == "" {
		c.Feed.Title = defaultFeedTitle
	}
	c.Feed.Link = strings.TrimSpace(c.Feed.Link)
	c.Feed.Language = strings.TrimSpace(c.Feed.Language)
	if c.Feed.Language == "" {
		c.Feed.Language = defaultFeedLanguage
	}
	c.Feed.SyncSchedule = strings.TrimSpace(c.Feed.SyncSchedule)
	if c.Feed.SyncSchedule == "" {
		c.Feed.SyncSchedule = defaultFeedSyncSchedule
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.Workers <= 0 {
		c.Workflow.Workers = defaultWorkflowWorkers
	}
	if c.Workflow.QueuePollInterval <= 0 {
		c.Workflow.QueuePollInterval = defaultQueuePollInterval
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		c.Workflow.ErrorRetryInterval = defaultErrorRetryInterval
	}
	if c.Workflow.HeartbeatInterval <= 0 {
		c.Workflow.HeartbeatInterval = defaultHeartbeatInterval
	}
	if c.Workflow.HeartbeatTimeout <= 0 {
		c.Workflow.HeartbeatTimeout = defaultHeartbeatTimeout
	}
	if c.Workflow.ResearchTimeout <= 0 {
		c.Workflow.ResearchTimeout = defaultResearchTimeout
	}
	if c.Workflow.DraftTimeout <= 0 {
		c.Workflow.DraftTimeout = defaultDraftTimeout
	}
	if c.Workflow.NamingTimeout <= 0 {
		c.Workflow.NamingTimeout = defaultNamingTimeout
	}
	if c.Workflow.SynthesisTimeout <= 0 {
		c.Workflow.SynthesisTimeout = defaultSynthesisTimeout
	}
	if c.Workflow.CatalogTimeout <= 0 {
		c.Workflow.CatalogTimeout = defaultCatalogTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays <= 0 {
		c.Logging.RetentionDays = defaultLogRetentionDays
	}
}
