package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	defaultBaseURL     = "https://api.elevenlabs.io"
	defaultHTTPTimeout = 180 * time.Second
	defaultModelID     = "eleven_multilingual_v2"
)

// Config captures the runtime settings required to talk to the TTS service.
type Config struct {
	APIKey         string
	BaseURL        string
	ModelID        string
	TimeoutSeconds int
}

// Client wraps the ElevenLabs speech synthesis API.
type Client struct {
	cfg        Config
	httpClient *http.Client

	rosterMu sync.Mutex
	roster   map[string]string
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a TTS client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			ModelID:        strings.TrimSpace(cfg.ModelID),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	if client.cfg.ModelID == "" {
		client.cfg.ModelID = defaultModelID
	}
	return client
}

// Voice describes an available synthesis voice.
type Voice struct {
	ID   string `json:"voice_id"`
	Name string `json:"name"`
}

type voicesResponse struct {
	Voices []Voice `json:"voices"`
}

type synthesizeRequest struct {
	Text          string         `json:"text"`
	ModelID       string         `json:"model_id"`
	VoiceSettings *voiceSettings `json:"voice_settings,omitempty"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("tts request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// IsRetryable reports whether an error is worth retrying at a higher layer.
func IsRetryable(err error) bool {
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusRequestTimeout ||
			statusErr.StatusCode == http.StatusTooManyRequests ||
			statusErr.StatusCode >= http.StatusInternalServerError
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// Voices fetches the available voice roster.
func (c *Client) Voices(ctx context.Context) ([]Voice, error) {
	if c.cfg.APIKey == "" {
		return nil, errors.New("tts voices: api key required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/v1/voices", nil)
	if err != nil {
		return nil, fmt.Errorf("tts voices: new request: %w", err)
	}
	req.Header.Set("xi-api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts voices: http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tts voices: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &httpStatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	var parsed voicesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("tts voices: decode response: %w", err)
	}
	return parsed.Voices, nil
}

// ResolveVoiceID maps a configured voice name to its service identifier.
// Values already shaped like identifiers pass through untouched; the roster
// is fetched once and cached for the lifetime of the client.
func (c *Client) ResolveVoiceID(ctx context.Context, nameOrID string) (string, error) {
	nameOrID = strings.TrimSpace(nameOrID)
	if nameOrID == "" {
		return "", errors.New("tts resolve: voice is required")
	}

	c.rosterMu.Lock()
	defer c.rosterMu.Unlock()
	if c.roster == nil {
		voices, err := c.Voices(ctx)
		if err != nil {
			return "", err
		}
		c.roster = make(map[string]string, len(voices))
		for _, voice := range voices {
			c.roster[strings.ToLower(voice.Name)] = voice.ID
		}
	}
	if id, ok := c.roster[strings.ToLower(nameOrID)]; ok {
		return id, nil
	}
	// Not a known name; assume the caller supplied a raw voice id.
	return nameOrID, nil
}

// Synthesize converts one text segment to audio with the given voice and
// returns the encoded audio bytes.
func (c *Client) Synthesize(ctx context.Context, voiceID, text string) ([]byte, error) {
	voiceID = strings.TrimSpace(voiceID)
	text = strings.TrimSpace(text)
	if c.cfg.APIKey == "" {
		return nil, errors.New("tts synthesize: api key required")
	}
	if voiceID == "" {
		return nil, errors.New("tts synthesize: voice id required")
	}
	if text == "" {
		return nil, errors.New("tts synthesize: text required")
	}

	payload := synthesizeRequest{
		Text:    text,
		ModelID: c.cfg.ModelID,
		VoiceSettings: &voiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
		},
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("tts synthesize: encode body: %w", err)
	}

	endpoint := c.cfg.BaseURL + "/v1/text-to-speech/" + voiceID
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("tts synthesize: new request: %w", err)
	}
	req.Header.Set("xi-api-key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts synthesize: http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tts synthesize: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &httpStatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	if len(body) == 0 {
		return nil, errors.New("tts synthesize: empty audio payload")
	}
	return body, nil
}

// HealthCheck verifies the API key by fetching the voice roster.
func (c *Client) HealthCheck(ctx context.Context) error {
	voices, err := c.Voices(ctx)
	if err != nil {
		return err
	}
	if len(voices) == 0 {
		return errors.New("tts health: no voices available")
	}
	return nil
}
