package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
)

func TestNewFanoutHandlerCollapsesDegenerateCases(t *testing.T) {
	if _, ok := newFanoutHandler(nil, nil).(NoopHandler); !ok {
		t.Error("expected NoopHandler when every handler is nil")
	}

	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if h := newFanoutHandler(nil, inner, nil); h != inner {
		t.Error("expected a single surviving handler to be returned unwrapped")
	}
}

func TestFanoutHandlerEnabledIfAnyAccepts(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	h := newFanoutHandler(
		slog.NewJSONHandler(&buf1, &slog.HandlerOptions{Level: slog.LevelWarn}),
		slog.NewJSONHandler(&buf2, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)

	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug should be enabled while one handler accepts it")
	}
	h2 := newFanoutHandler(
		slog.NewJSONHandler(&buf1, &slog.HandlerOptions{Level: slog.LevelWarn}),
		slog.NewJSONHandler(&buf2, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	if h2.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info should be disabled when no handler accepts it")
	}
}

func TestFanoutHandlerDeliversPerHandlerLevel(t *testing.T) {
	var infoBuf, warnBuf bytes.Buffer
	logger := slog.New(newFanoutHandler(
		slog.NewJSONHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&warnBuf, &slog.HandlerOptions{Level: slog.LevelWarn}),
	))

	logger.Info("queue poll idle")

	if infoBuf.Len() == 0 {
		t.Error("info handler should receive info records")
	}
	if warnBuf.Len() != 0 {
		t.Error("warn handler should not receive info records")
	}
}

func TestFanoutHandlerWithAttrsReachesEveryStream(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	h := newFanoutHandler(
		slog.NewJSONHandler(&buf1, nil),
		slog.NewJSONHandler(&buf2, nil),
	).WithAttrs([]slog.Attr{slog.String("job_id", "42")})

	slog.New(h).Info("stage complete")

	for i, buf := range []*bytes.Buffer{&buf1, &buf2} {
		if !bytes.Contains(buf.Bytes(), []byte(`"job_id"`)) {
			t.Errorf("stream %d missing job_id attribute", i+1)
		}
	}
}

func TestFanoutHandlerWithGroup(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	h := newFanoutHandler(
		slog.NewJSONHandler(&buf1, nil),
		slog.NewJSONHandler(&buf2, nil),
	).WithGroup("stage")

	slog.New(h).Info("grouped", slog.String("name", "synthesis"))

	for i, buf := range []*bytes.Buffer{&buf1, &buf2} {
		if !bytes.Contains(buf.Bytes(), []byte(`"stage"`)) {
			t.Errorf("stream %d missing stage group", i+1)
		}
	}
}

func TestTeeHandlerWritesAllStreams(t *testing.T) {
	var terminal, file bytes.Buffer
	logger := slog.New(TeeHandler(
		slog.NewJSONHandler(&terminal, nil),
		slog.NewJSONHandler(&file, nil),
	))

	logger.Info("episode published", slog.String("canonical_name", "evergreen-bio-250041"))

	if terminal.Len() == 0 || file.Len() == 0 {
		t.Fatalf("expected both streams written, got %d and %d bytes", terminal.Len(), file.Len())
	}
	if !bytes.Contains(file.Bytes(), []byte("evergreen-bio-250041")) {
		t.Error("file stream missing canonical name attribute")
	}
}
