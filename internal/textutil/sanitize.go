package textutil

import (
	"regexp"
	"strings"
)

// markdownLinkPattern captures the label of a markdown link so the URL can be
// dropped from spoken text.
var markdownLinkPattern = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)

// markdownMarkReplacer strips the inline markdown marks backends leak into
// plain-text speaker lines.
var markdownMarkReplacer = strings.NewReplacer(
	"**", "",
	"__", "",
	"```", "",
	"`", "",
	"##", "",
	"#", "",
	"*", "",
)

// SanitizeSpokenText strips markdown artifacts from a script line so the
// synthesizer never reads formatting aloud. Links collapse to their label,
// emphasis and heading marks are removed, and whitespace runs collapse to
// single spaces.
func SanitizeSpokenText(text string) string {
	text = markdownLinkPattern.ReplaceAllString(text, "$1")
	text = markdownMarkReplacer.Replace(text)
	return strings.Join(strings.Fields(text), " ")
}
