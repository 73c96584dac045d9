package drafter

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/garywelz/copernicus-web-sub000/internal/config"
	"github.com/garywelz/copernicus-web-sub000/internal/logging"
	"github.com/garywelz/copernicus-web-sub000/internal/research"
	"github.com/garywelz/copernicus-web-sub000/internal/services"
	"github.com/garywelz/copernicus-web-sub000/internal/services/llm"
)

// DefaultTargetMinutes is the episode length used when a request does not
// specify one.
const DefaultTargetMinutes = 20

// Request carries the parameters a script is drafted against.
type Request struct {
	Topic         string
	Category      string
	Kind          string
	Expertise     string
	TargetMinutes int
	// Roles is the allowed speaker role set; segments using any other role
	// fail validation.
	Roles []string
}

// completer is the slice of the LLM client the drafter depends on.
type completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	Model() string
}

// Drafter turns a research bundle into an episode script, walking an ordered
// backend chain until one produces a valid script.
type Drafter struct {
	backends       []completer
	wordsPerMinute int
	logger         *slog.Logger
}

// New constructs a drafter over the configured primary backend and its
// fallback chain.
func New(cfg *config.Config, logger *slog.Logger, opts ...llm.Option) *Drafter {
	backendCfgs := cfg.DrafterBackends()
	backends := make([]completer, 0, len(backendCfgs))
	for _, backendCfg := range backendCfgs {
		backends = append(backends, llm.NewClient(llm.Config{
			APIKey:         backendCfg.APIKey,
			BaseURL:        backendCfg.BaseURL,
			Model:          backendCfg.Model,
			Referer:        backendCfg.Referer,
			Title:          backendCfg.Title,
			TimeoutSeconds: backendCfg.TimeoutSeconds,
		}, opts...))
	}
	return newWithBackends(backends, cfg.LLM.WordsPerMinute, logger)
}

func newWithBackends(backends []completer, wordsPerMinute int, logger *slog.Logger) *Drafter {
	if wordsPerMinute <= 0 {
		wordsPerMinute = 150
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Drafter{backends: backends, wordsPerMinute: wordsPerMinute, logger: logger}
}

// Draft generates a validated script. Backends are tried in order; a backend
// whose output cannot be parsed or validated is skipped. When the chain is
// exhausted the error is ErrDraftGenerationFailed.
func (d *Drafter) Draft(ctx context.Context, bundle research.Bundle, req Request) (*Script, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if len(d.backends) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "drafter", "draft",
			"No drafting backends are configured", nil)
	}

	userPrompt := buildUserPrompt(bundle, req, d.wordsPerMinute)
	var attemptErrs []string
	for _, backend := range d.backends {
		logger := d.logger.With(logging.String("model", backend.Model()))
		content, err := backend.CompleteJSON(ctx, systemPrompt, userPrompt)
		if err != nil {
			if ctx.Err() != nil {
				return nil, services.Wrap(services.ErrTimeout, "drafter", "draft",
					"Drafting was cancelled", ctx.Err())
			}
			attemptErrs = append(attemptErrs, fmt.Sprintf("%s: %v", backend.Model(), err))
			logger.Warn("drafting backend failed", logging.Error(err))
			continue
		}
		script, err := parseScript(content)
		if err != nil {
			attemptErrs = append(attemptErrs, fmt.Sprintf("%s: %v", backend.Model(), err))
			logger.Warn("drafting response unparseable", logging.Error(err))
			continue
		}
		if err := validateScript(script, req); err != nil {
			attemptErrs = append(attemptErrs, fmt.Sprintf("%s: %v", backend.Model(), err))
			logger.Warn("drafted script rejected", logging.Error(err))
			continue
		}
		script.Model = backend.Model()
		d.estimateSegments(script)
		logger.Info("script drafted",
			logging.Int("segment_count", len(script.Segments)),
			logging.Int("word_count", script.WordCount()),
		)
		return script, nil
	}

	return nil, services.Wrap(services.ErrDraftGenerationFailed, "drafter", "draft",
		"All drafting backends failed or produced invalid scripts",
		fmt.Errorf("%s", strings.Join(attemptErrs, "; ")))
}

func (r Request) validate() error {
	if strings.TrimSpace(r.Topic) == "" {
		return services.Wrap(services.ErrValidation, "drafter", "validate request",
			"Drafting requires a topic", nil)
	}
	if len(r.Roles) == 0 {
		return services.Wrap(services.ErrValidation, "drafter", "validate request",
			"Drafting requires at least one speaker role", nil)
	}
	return nil
}

// validateScript rejects scripts using roles outside the request's role set
// and scripts with no usable metadata.
func validateScript(script *Script, req Request) error {
	allowed := make(map[string]struct{}, len(req.Roles))
	for _, role := range req.Roles {
		allowed[strings.ToUpper(strings.TrimSpace(role))] = struct{}{}
	}
	var unknown []string
	for _, segment := range script.Segments {
		if _, ok := allowed[segment.Role]; !ok {
			unknown = append(unknown, segment.Role)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("unknown speaker roles: %s", strings.Join(dedupeStrings(unknown), ", "))
	}
	if strings.TrimSpace(script.Title) == "" {
		script.Title = defaultTitle(req)
	}
	return nil
}

func defaultTitle(req Request) string {
	return strings.TrimSpace(req.Topic)
}

// estimateSegments fills per-segment duration estimates from word counts at
// the configured speaking rate.
func (d *Drafter) estimateSegments(script *Script) {
	for i := range script.Segments {
		words := len(strings.Fields(script.Segments[i].Text))
		script.Segments[i].EstimatedSeconds = float64(words) / float64(d.wordsPerMinute) * 60
	}
}

func dedupeStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
