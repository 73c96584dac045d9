package naming

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Kind distinguishes the two canonical name families.
type Kind string

const (
	// KindEvergreen names recurring reference topics with a per-category sequence.
	KindEvergreen Kind = "evergreen"
	// KindNews names dated items with a DDMMYYYY stamp and an optional serial.
	KindNews Kind = "news"
)

// newsDateLayout is the DDMMYYYY stamp embedded in news names.
const newsDateLayout = "02012006"

var (
	evergreenPattern = regexp.MustCompile(`^evergreen-(bio|chem|compsci|math|phys)-(\d{6})$`)
	newsPattern      = regexp.MustCompile(`^news-(bio|chem|compsci|math|phys)-(\d{8})(?:-(\d{4}))?$`)
)

// ParseKind resolves a kind from its string form.
func ParseKind(value string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(KindEvergreen):
		return KindEvergreen, nil
	case string(KindNews):
		return KindNews, nil
	default:
		return "", fmt.Errorf("unknown kind %q (expected %q or %q)", value, KindEvergreen, KindNews)
	}
}

// Name is the decomposed form of a canonical episode name.
type Name struct {
	Kind     Kind
	Category Category
	// Sequence is the six-digit number of an evergreen name.
	Sequence int
	// Date is the DDMMYYYY stamp of a news name.
	Date string
	// Serial is the four-digit suffix of a second-or-later news name for the
	// same category and date; zero when absent.
	Serial int
}

// String renders the canonical name.
func (n Name) String() string {
	switch n.Kind {
	case KindEvergreen:
		return fmt.Sprintf("evergreen-%s-%06d", n.Category.Code(), n.Sequence)
	case KindNews:
		if n.Serial > 0 {
			return fmt.Sprintf("news-%s-%s-%04d", n.Category.Code(), n.Date, n.Serial)
		}
		return fmt.Sprintf("news-%s-%s", n.Category.Code(), n.Date)
	default:
		return ""
	}
}

// IsCanonical reports whether value matches one of the canonical name shapes.
// Records that already satisfy either shape must never be re-numbered; callers
// allocate a new name only when this predicate rejects the existing one.
func IsCanonical(value string) bool {
	_, err := Parse(value)
	return err == nil
}

// Parse decomposes a canonical name, rejecting anything outside the two
// published shapes (UUIDs, job tokens, legacy object keys).
func Parse(value string) (Name, error) {
	trimmed := strings.TrimSpace(value)
	if match := evergreenPattern.FindStringSubmatch(trimmed); match != nil {
		sequence, err := strconv.Atoi(match[2])
		if err != nil {
			return Name{}, fmt.Errorf("parse sequence %q: %w", match[2], err)
		}
		return Name{
			Kind:     KindEvergreen,
			Category: codeCategories[match[1]],
			Sequence: sequence,
		}, nil
	}
	if match := newsPattern.FindStringSubmatch(trimmed); match != nil {
		name := Name{
			Kind:     KindNews,
			Category: codeCategories[match[1]],
			Date:     match[2],
		}
		if match[3] != "" {
			serial, err := strconv.Atoi(match[3])
			if err != nil {
				return Name{}, fmt.Errorf("parse serial %q: %w", match[3], err)
			}
			name.Serial = serial
		}
		return name, nil
	}
	return Name{}, fmt.Errorf("not a canonical name: %q", value)
}

// NewsDate formats a publication time as the DDMMYYYY stamp used in news names.
func NewsDate(when time.Time) string {
	return when.UTC().Format(newsDateLayout)
}
