package logging

import (
	"log/slog"
	"testing"
	"time"
)

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		value int64
		want  string
	}{
		{512, "512 B"},
		{2048, "2.00 KiB"},
		{5 * 1024 * 1024, "5.00 MiB"},
		{3 * 1024 * 1024 * 1024, "3.00 GiB"},
	}
	for _, tc := range cases {
		if got := formatBytes(tc.value); got != tc.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tc.value, got, tc.want)
		}
	}
}

func TestFormatDurationHuman(t *testing.T) {
	cases := []struct {
		value time.Duration
		want  string
	}{
		{430 * time.Microsecond, "0s"},
		{1234 * time.Millisecond, "1.2s"},
		{90500 * time.Millisecond, "1m31s"},
	}
	for _, tc := range cases {
		if got := formatDurationHuman(tc.value); got != tc.want {
			t.Errorf("formatDurationHuman(%v) = %q, want %q", tc.value, got, tc.want)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	if got := formatPercent(40); got != "40%" {
		t.Errorf("formatPercent(40) = %q", got)
	}
	if got := formatPercent(33.333); got != "33.3%" {
		t.Errorf("formatPercent(33.333) = %q", got)
	}
}

func TestFormatValueForKeySmartFormats(t *testing.T) {
	if got := formatValueForKey("response_body_bytes", slog.Int64Value(2048)); got != "2.00 KiB" {
		t.Errorf("byte key = %q", got)
	}
	if got := formatValueForKey("stage_duration", slog.DurationValue(90500*time.Millisecond)); got != "1m31s" {
		t.Errorf("duration key = %q", got)
	}
	if got := formatValueForKey("progress_percent", slog.Float64Value(62.5)); got != "62.5%" {
		t.Errorf("percent key = %q", got)
	}
	if got := formatValueForKey("published", slog.BoolValue(true)); got != "yes" {
		t.Errorf("bool value = %q", got)
	}
}
