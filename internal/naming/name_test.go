package naming_test

import (
	"testing"
	"time"

	"github.com/garywelz/copernicus-web-sub000/internal/naming"
)

func TestIsCanonical(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"evergreen", "evergreen-bio-250041", true},
		{"news without serial", "news-chem-28032025", true},
		{"news with serial", "news-chem-28032025-0001", true},
		{"evergreen all categories", "evergreen-compsci-300000", true},
		{"uuid", "a1b2c3d4-e5f6-7890-abcd-ef1234567890", false},
		{"job token", "job-20250328-174455", false},
		{"short sequence", "evergreen-bio-4041", false},
		{"unknown category", "evergreen-geo-250041", false},
		{"short news serial", "news-chem-28032025-1", false},
		{"trailing garbage", "evergreen-bio-250041.mp3", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := naming.IsCanonical(tt.value); got != tt.want {
				t.Fatalf("IsCanonical(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	for _, value := range []string{
		"evergreen-phys-250000",
		"news-math-01012026",
		"news-bio-31122025-0042",
	} {
		name, err := naming.Parse(value)
		if err != nil {
			t.Fatalf("Parse(%q): %v", value, err)
		}
		if name.String() != value {
			t.Fatalf("round trip of %q produced %q", value, name.String())
		}
	}
}

func TestParseFields(t *testing.T) {
	name, err := naming.Parse("news-chem-28032025-0002")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if name.Kind != naming.KindNews {
		t.Fatalf("expected news kind, got %q", name.Kind)
	}
	if name.Category != naming.CategoryChemistry {
		t.Fatalf("expected chemistry, got %q", name.Category)
	}
	if name.Date != "28032025" || name.Serial != 2 {
		t.Fatalf("unexpected fields: %+v", name)
	}
}

func TestNewsDate(t *testing.T) {
	when := time.Date(2025, time.March, 28, 23, 50, 0, 0, time.UTC)
	if got := naming.NewsDate(when); got != "28032025" {
		t.Fatalf("NewsDate = %q, want 28032025", got)
	}
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		input string
		want  naming.Category
	}{
		{"biology", naming.CategoryBiology},
		{"Computer Science", naming.CategoryComputerScience},
		{"compsci", naming.CategoryComputerScience},
		{"PHYS", naming.CategoryPhysics},
		{"computer_science", naming.CategoryComputerScience},
	}
	for _, tt := range tests {
		got, err := naming.ParseCategory(tt.input)
		if err != nil {
			t.Fatalf("ParseCategory(%q): %v", tt.input, err)
		}
		if got != tt.want {
			t.Fatalf("ParseCategory(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
	if _, err := naming.ParseCategory("astrology"); err == nil {
		t.Fatal("expected unknown category to be rejected")
	}
}

func TestCategoryDisplayName(t *testing.T) {
	if got := naming.CategoryComputerScience.DisplayName(); got != "Computer Science" {
		t.Fatalf("DisplayName = %q", got)
	}
}
