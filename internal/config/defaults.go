package config

const (
	defaultStagingDir         = "~/.local/share/copernicus/staging"
	defaultLogDir             = "~/.local/share/copernicus/logs"
	defaultAssetsDir          = "~/.local/share/copernicus/assets"
	defaultLockDir            = "~/.local/share/copernicus/locks"
	defaultLocalStorageDir    = "~/.local/share/copernicus/store"
	defaultAPIBind            = "127.0.0.1:7487"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLogRetentionDays   = 60
	defaultMinCitations       = 3
	defaultMinQuality         = 4.0
	defaultMaxCitations       = 25
	defaultProviderTimeout    = 30
	defaultResearchParallel   = 3
	defaultLLMBaseURL         = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel           = "anthropic/claude-sonnet-4"
	defaultLLMReferer         = "https://github.com/garywelz/copernicus-web-sub000"
	defaultLLMTitle           = "Copernicus Drafter"
	defaultLLMTimeoutSeconds  = 120
	defaultWordsPerMinute     = 150
	defaultEvergreenFloor     = 250000
	defaultTTSBaseURL         = "https://api.elevenlabs.io"
	defaultTTSParallel        = 4
	defaultTTSSegmentTimeout  = 120
	defaultTTSSegmentRetries  = 2
	defaultTTSTimeoutSeconds  = 180
	defaultAudioBitrateKbps   = 128
	defaultAssemblyTimeout    = 300
	defaultFeedTitle          = "Copernicus AI: Frontiers of Science"
	defaultFeedLanguage       = "en-us"
	defaultFeedSyncSchedule   = "@every 1h"
	defaultWorkflowWorkers    = 2
	defaultQueuePollInterval  = 5
	defaultErrorRetryInterval = 10
	defaultHeartbeatInterval  = 15
	defaultHeartbeatTimeout   = 120
	defaultResearchTimeout    = 180
	defaultDraftTimeout       = 600
	defaultNamingTimeout      = 60
	defaultSynthesisTimeout   = 1800
	defaultCatalogTimeout     = 300
)

// Storage backend identifiers accepted by storage.backend.
const (
	StorageBackendS3    = "s3"
	StorageBackendLocal = "local"
)

func defaultVoices() map[string]string {
	return map[string]string{
		"HOST":       "Matilda",
		"EXPERT":     "Adam",
		"QUESTIONER": "Bella",
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
			AssetsDir:  defaultAssetsDir,
			APIBind:    defaultAPIBind,
		},
		Research: Research{
			MinCitations:    defaultMinCitations,
			MinQuality:      defaultMinQuality,
			MaxCitations:    defaultMaxCitations,
			ProviderTimeout: defaultProviderTimeout,
			MaxParallel:     defaultResearchParallel,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
			WordsPerMinute: defaultWordsPerMinute,
		},
		Naming: Naming{
			EvergreenFloor: defaultEvergreenFloor,
			LockDir:        defaultLockDir,
		},
		TTS: TTS{
			BaseURL:        defaultTTSBaseURL,
			Voices:         defaultVoices(),
			MaxParallel:    defaultTTSParallel,
			SegmentTimeout: defaultTTSSegmentTimeout,
			SegmentRetries: defaultTTSSegmentRetries,
			TimeoutSeconds: defaultTTSTimeoutSeconds,
		},
		Audio: Audio{
			BitrateKbps:     defaultAudioBitrateKbps,
			AssemblyTimeout: defaultAssemblyTimeout,
		},
		Storage: Storage{
			Backend:  StorageBackendLocal,
			LocalDir: defaultLocalStorageDir,
		},
		Feed: Feed{
			Title:        defaultFeedTitle,
			Language:     defaultFeedLanguage,
			SyncSchedule: defaultFeedSyncSchedule,
		},
		Notifications: Notifications{
			RequestTimeout: 10,
			JobCompleted:   true,
			JobFailed:      true,
			FeedSync:       false,
			Errors:         true,
		},
		Workflow: Workflow{
			Workers:            defaultWorkflowWorkers,
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			HeartbeatInterval:  defaultHeartbeatInterval,
			HeartbeatTimeout:   defaultHeartbeatTimeout,
			ResearchTimeout:    defaultResearchTimeout,
			DraftTimeout:       defaultDraftTimeout,
			NamingTimeout:      defaultNamingTimeout,
			SynthesisTimeout:   defaultSynthesisTimeout,
			CatalogTimeout:     defaultCatalogTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
