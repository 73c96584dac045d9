package textutil

import "testing"

func TestSanitizeSpokenText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain text unchanged",
			in:   "Welcome back to the show.",
			want: "Welcome back to the show.",
		},
		{
			name: "emphasis marks stripped",
			in:   "This is **really** important, *listen* closely.",
			want: "This is really important, listen closely.",
		},
		{
			name: "link collapses to label",
			in:   "See [the AlphaFold paper](https://doi.org/10.1038/s41586-021-03819-2) for details.",
			want: "See the AlphaFold paper for details.",
		},
		{
			name: "heading marks and whitespace runs",
			in:   "## Segment two\n\n  The   experiment   begins.",
			want: "Segment two The experiment begins.",
		},
		{
			name: "code fences removed",
			in:   "Run ```protein fold``` and wait.",
			want: "Run protein fold and wait.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeSpokenText(tt.in); got != tt.want {
				t.Errorf("SanitizeSpokenText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
