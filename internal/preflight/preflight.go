package preflight

import (
	"context"

	"github.com/garywelz/copernicus-web-sub000/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunFeatureChecks executes all applicable preflight checks for the given
// config. Checks gated on optional features are only run when the feature is
// configured.
func RunFeatureChecks(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	if cfg.Paths.AssetsDir != "" {
		results = append(results, CheckDirectoryAccess("Assets directory", cfg.Paths.AssetsDir))
	}
	results = append(results, CheckDiskSpace("Staging disk space", cfg.Paths.StagingDir, minStagingBytes))

	results = append(results, CheckLLM(ctx, "Drafting LLM", cfg.GetLLM()))
	results = append(results, CheckTTS(ctx, "TTS", cfg.TTS))
	results = append(results, CheckObjectStore(ctx, cfg.Storage))

	return results
}
