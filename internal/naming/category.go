package naming

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Category identifies the subject area of a generated episode.
type Category string

const (
	CategoryBiology         Category = "biology"
	CategoryChemistry       Category = "chemistry"
	CategoryComputerScience Category = "computer-science"
	CategoryMathematics     Category = "mathematics"
	CategoryPhysics         Category = "physics"
)

var categoryCodes = map[Category]string{
	CategoryBiology:         "bio",
	CategoryChemistry:       "chem",
	CategoryComputerScience: "compsci",
	CategoryMathematics:     "math",
	CategoryPhysics:         "phys",
}

var codeCategories = func() map[string]Category {
	out := make(map[string]Category, len(categoryCodes))
	for category, code := range categoryCodes {
		out[code] = category
	}
	return out
}()

var titleCaser = cases.Title(language.English)

// AllCategories returns the known categories in stable order.
func AllCategories() []Category {
	return []Category{
		CategoryBiology,
		CategoryChemistry,
		CategoryComputerScience,
		CategoryMathematics,
		CategoryPhysics,
	}
}

// ParseCategory resolves a category from its full name or short code.
func ParseCategory(value string) (Category, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.ReplaceAll(normalized, " ", "-")
	normalized = strings.ReplaceAll(normalized, "_", "-")
	if normalized == "" {
		return "", fmt.Errorf("category is required")
	}
	candidate := Category(normalized)
	if _, ok := categoryCodes[candidate]; ok {
		return candidate, nil
	}
	if category, ok := codeCategories[normalized]; ok {
		return category, nil
	}
	return "", fmt.Errorf("unknown category %q", value)
}

// Code returns the short category code used inside canonical names.
func (c Category) Code() string {
	return categoryCodes[c]
}

// DisplayName returns the human-readable category label.
func (c Category) DisplayName() string {
	return titleCaser.String(strings.ReplaceAll(string(c), "-", " "))
}

// Valid reports whether the category is one of the known subject areas.
func (c Category) Valid() bool {
	_, ok := categoryCodes[c]
	return ok
}
