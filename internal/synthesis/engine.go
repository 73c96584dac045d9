package synthesis

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/garywelz/copernicus-web-sub000/internal/config"
	"github.com/garywelz/copernicus-web-sub000/internal/drafter"
	"github.com/garywelz/copernicus-web-sub000/internal/logging"
	"github.com/garywelz/copernicus-web-sub000/internal/services"
	"github.com/garywelz/copernicus-web-sub000/internal/services/tts"
	"github.com/garywelz/copernicus-web-sub000/internal/storage"
)

// State tracks where a synthesis run is in its lifecycle.
type State string

const (
	StatePending          State = "pending"
	StateSegmentsInFlight State = "segments_in_flight"
	StateAssembling       State = "assembling"
	StateComplete         State = "complete"
	StateFailed           State = "failed"
)

// Artifact describes the assembled episode audio after upload.
type Artifact struct {
	Key             string
	URL             string
	SizeBytes       int64
	DurationSeconds float64
}

// voiceClient is the slice of the TTS client the engine depends on.
type voiceClient interface {
	ResolveVoiceID(ctx context.Context, nameOrID string) (string, error)
	Synthesize(ctx context.Context, voiceID, text string) ([]byte, error)
}

// ProgressFunc receives state transitions for reflection into job progress.
type ProgressFunc func(state State, message string, percent float64)

// Engine synthesizes script segments into voice clips and assembles them
// into one episode file.
type Engine struct {
	cfg    *config.Config
	client voiceClient
	store  storage.Store
	logger *slog.Logger

	mu    sync.Mutex
	state State

	onProgress ProgressFunc
}

// NewEngine constructs a synthesis engine.
func NewEngine(cfg *config.Config, client voiceClient, store storage.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{cfg: cfg, client: client, store: store, logger: logger, state: StatePending}
}

// SetProgressFunc installs a callback invoked on every state transition.
func (e *Engine) SetProgressFunc(fn ProgressFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onProgress = fn
}

// State returns the engine's current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) setState(state State, message string, percent float64) {
	e.mu.Lock()
	e.state = state
	fn := e.onProgress
	e.mu.Unlock()
	if fn != nil {
		fn(state, message, percent)
	}
}

// Synthesize converts the script into one uploaded episode audio file. Voice
// overrides are merged over configured defaults; segments are synthesized
// with bounded concurrency and assembled in script order.
func (e *Engine) Synthesize(ctx context.Context, canonicalName string, script *drafter.Script, overrides map[string]string) (*Artifact, error) {
	if script == nil || len(script.Segments) == 0 {
		e.setState(StateFailed, "Script has no segments", 0)
		return nil, services.Wrap(services.ErrValidation, "synthesis", "synthesize",
			"Script has no segments to synthesize", nil)
	}

	e.setState(StatePending, "Binding voices", 0)
	binding, err := BindVoices(script, overrides, e.cfg.TTS.Voices)
	if err != nil {
		e.setState(StateFailed, "Voice binding failed", 0)
		return nil, err
	}
	voiceIDs, err := e.resolveVoiceIDs(ctx, binding)
	if err != nil {
		e.setState(StateFailed, "Voice resolution failed", 0)
		return nil, err
	}

	e.setState(StateSegmentsInFlight, fmt.Sprintf("Synthesizing %d segments", len(script.Segments)), 10)
	clips, err := e.synthesizeSegments(ctx, script, voiceIDs)
	if err != nil {
		e.setState(StateFailed, "Segment synthesis failed", 0)
		return nil, err
	}

	e.setState(StateAssembling, "Assembling episode audio", 70)
	stagingPath, size, err := e.assemble(ctx, canonicalName, clips)
	if err != nil {
		e.setState(StateFailed, "Assembly failed", 0)
		return nil, err
	}
	defer os.Remove(stagingPath)

	artifact, err := e.upload(ctx, canonicalName, stagingPath, size)
	if err != nil {
		e.setState(StateFailed, "Upload failed", 0)
		return nil, err
	}
	e.setState(StateComplete, fmt.Sprintf("Episode audio published (%.0fs)", artifact.DurationSeconds), 100)
	return artifact, nil
}

// resolveVoiceIDs maps each bound voice name to a backend voice id, resolving
// each distinct name once.
func (e *Engine) resolveVoiceIDs(ctx context.Context, binding map[string]string) (map[string]string, error) {
	resolved := make(map[string]string, len(binding))
	byName := make(map[string]string)
	for role, name := range binding {
		if id, ok := byName[name]; ok {
			resolved[role] = id
			continue
		}
		id, err := e.client.ResolveVoiceID(ctx, name)
		if err != nil {
			return nil, services.Wrap(services.ErrExternalService, "synthesis", "resolve voice",
				fmt.Sprintf("Could not resolve voice %q for role %s", name, role), err)
		}
		byName[name] = id
		resolved[role] = id
	}
	return resolved, nil
}

// synthesizeSegments fans segment synthesis out under the configured
// concurrency bound. Results land at their script positions; the first
// segment to fail after retries cancels the rest.
func (e *Engine) synthesizeSegments(ctx context.Context, script *drafter.Script, voiceIDs map[string]string) ([][]byte, error) {
	maxParallel := e.cfg.TTS.MaxParallel
	if maxParallel < 1 {
		maxParallel = 1
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	clips := make([][]byte, len(script.Segments))
	sem := make(chan struct{}, maxParallel)
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for i := range script.Segments {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-runCtx.Done():
				return
			}
			segment := script.Segments[idx]
			audio, err := e.synthesizeOne(runCtx, voiceIDs[normalizeRole(segment.Role)], segment.Text)
			if err != nil {
				fail(services.Wrap(services.ErrSynthesisSegmentFailed, "synthesis", "synthesize segment",
					fmt.Sprintf("Segment %d (%s) failed", idx+1, segment.Role), err))
				return
			}
			clips[idx] = audio
		}(i)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, services.Wrap(services.ErrSynthesisTimeout, "synthesis", "synthesize segments",
			"Synthesis was cancelled", err)
	}
	return clips, nil
}

// synthesizeOne runs one segment call with its per-attempt timeout and the
// configured retry budget. Non-retryable failures stop immediately.
func (e *Engine) synthesizeOne(ctx context.Context, voiceID, text string) ([]byte, error) {
	attempts := e.cfg.TTS.SegmentRetries + 1
	if attempts < 1 {
		attempts = 1
	}
	segmentTimeout := time.Duration(e.cfg.TTS.SegmentTimeout) * time.Second

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		attemptCtx := ctx
		if segmentTimeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, segmentTimeout)
			defer cancel()
		}
		audio, err := e.client.Synthesize(attemptCtx, voiceID, text)
		if err == nil {
			return audio, nil
		}
		lastErr = err
		if ctx.Err() != nil || !tts.IsRetryable(err) {
			break
		}
		if attempt < attempts {
			select {
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, lastErr
}

// assemble streams the intro clip, every voice clip in script order, and the
// outro clip into one staging file under the assembly deadline.
func (e *Engine) assemble(ctx context.Context, canonicalName string, clips [][]byte) (string, int64, error) {
	assemblyTimeout := time.Duration(e.cfg.Audio.AssemblyTimeout) * time.Second
	if assemblyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, assemblyTimeout)
		defer cancel()
	}

	stagingDir := e.cfg.Paths.StagingDir
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return "", 0, services.Wrap(services.ErrConfiguration, "synthesis", "assemble",
			"Staging directory is not writable", err)
	}
	out, err := os.CreateTemp(stagingDir, canonicalName+"-*.mp3")
	if err != nil {
		return "", 0, services.Wrap(services.ErrTransient, "synthesis", "assemble",
			"Could not create staging file", err)
	}
	stagingPath := out.Name()
	cleanup := func() {
		out.Close()
		os.Remove(stagingPath)
	}

	var written int64
	if n, err := e.copyClipFile(ctx, out, e.cfg.Audio.IntroClip); err != nil {
		cleanup()
		return "", 0, err
	} else {
		written += n
	}
	for i, clip := range clips {
		if err := ctx.Err(); err != nil {
			cleanup()
			return "", 0, services.Wrap(services.ErrSynthesisTimeout, "synthesis", "assemble",
				fmt.Sprintf("Assembly deadline hit at clip %d", i+1), err)
		}
		n, err := io.Copy(out, bytes.NewReader(clip))
		if err != nil {
			cleanup()
			return "", 0, services.Wrap(services.ErrTransient, "synthesis", "assemble",
				fmt.Sprintf("Writing clip %d failed", i+1), err)
		}
		written += n
	}
	if n, err := e.copyClipFile(ctx, out, e.cfg.Audio.OutroClip); err != nil {
		cleanup()
		return "", 0, err
	} else {
		written += n
	}
	if err := out.Close(); err != nil {
		os.Remove(stagingPath)
		return "", 0, services.Wrap(services.ErrTransient, "synthesis", "assemble",
			"Closing staging file failed", err)
	}
	return stagingPath, written, nil
}

// copyClipFile appends a configured bracketing clip. An empty path is a
// no-op; a configured but unreadable clip fails assembly.
func (e *Engine) copyClipFile(ctx context.Context, out io.Writer, clipPath string) (int64, error) {
	if clipPath == "" {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, services.Wrap(services.ErrSynthesisTimeout, "synthesis", "assemble",
			"Assembly deadline hit", err)
	}
	clip, err := os.Open(clipPath)
	if err != nil {
		return 0, services.Wrap(services.ErrConfiguration, "synthesis", "assemble",
			fmt.Sprintf("Bracketing clip %s is not readable", filepath.Base(clipPath)), err)
	}
	defer clip.Close()
	n, err := io.Copy(out, clip)
	if err != nil {
		return 0, services.Wrap(services.ErrTransient, "synthesis", "assemble",
			fmt.Sprintf("Writing clip %s failed", filepath.Base(clipPath)), err)
	}
	return n, nil
}

func (e *Engine) upload(ctx context.Context, canonicalName, stagingPath string, size int64) (*Artifact, error) {
	file, err := os.Open(stagingPath)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "synthesis", "upload",
			"Could not reopen staged episode audio", err)
	}
	defer file.Close()

	key := storage.AudioKey(canonicalName)
	url, err := e.store.Put(ctx, key, file, "audio/mpeg")
	if err != nil {
		return nil, services.Wrap(services.ErrExternalService, "synthesis", "upload",
			"Uploading episode audio failed", err)
	}
	return &Artifact{
		Key:             key,
		URL:             url,
		SizeBytes:       size,
		DurationSeconds: estimateDuration(size, e.cfg.Audio.BitrateKbps),
	}, nil
}

// estimateDuration derives playback seconds from the MP3 byte size at the
// configured constant bitrate.
func estimateDuration(sizeBytes int64, bitrateKbps int) float64 {
	if bitrateKbps <= 0 || sizeBytes <= 0 {
		return 0
	}
	return float64(sizeBytes) * 8 / float64(bitrateKbps*1000)
}
