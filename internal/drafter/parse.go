package drafter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/garywelz/copernicus-web-sub000/internal/services/llm"
	"github.com/garywelz/copernicus-web-sub000/internal/textutil"
)

type draftPayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Segments    []struct {
		Role string `json:"role"`
		Text string `json:"text"`
	} `json:"segments"`
}

// roleLinePattern matches the plain-text fallback shape "ROLE: spoken line".
var roleLinePattern = regexp.MustCompile(`^([A-Z][A-Z0-9_]{1,30}):\s*(.+)$`)

// parseScript decodes a backend's response into a script. Strict JSON is
// tried first; backends that ignore the JSON instruction fall back to the
// "ROLE: line" plain-text shape.
func parseScript(content string) (*Script, error) {
	var payload draftPayload
	if err := llm.DecodeLLMJSON(content, &payload); err == nil && len(payload.Segments) > 0 {
		script := &Script{
			Title:       strings.TrimSpace(payload.Title),
			Description: strings.TrimSpace(payload.Description),
		}
		for _, segment := range payload.Segments {
			role := strings.ToUpper(strings.TrimSpace(segment.Role))
			text := sanitizeSpokenText(segment.Text)
			if role == "" || text == "" {
				continue
			}
			script.Segments = append(script.Segments, Segment{Role: role, Text: text})
		}
		if len(script.Segments) > 0 {
			return script, nil
		}
	}

	script := parseRoleLines(content)
	if script == nil || len(script.Segments) == 0 {
		return nil, fmt.Errorf("no parseable segments in response")
	}
	return script, nil
}

// parseRoleLines extracts segments from plain text where each speaker turn
// starts with "ROLE:". Continuation lines attach to the previous turn.
func parseRoleLines(content string) *Script {
	script := &Script{}
	var current *Segment
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if match := roleLinePattern.FindStringSubmatch(line); match != nil {
			if current != nil {
				current.Text = sanitizeSpokenText(current.Text)
				if current.Text != "" {
					script.Segments = append(script.Segments, *current)
				}
			}
			current = &Segment{Role: match[1], Text: match[2]}
			continue
		}
		if current != nil {
			current.Text += " " + line
		}
	}
	if current != nil {
		current.Text = sanitizeSpokenText(current.Text)
		if current.Text != "" {
			script.Segments = append(script.Segments, *current)
		}
	}
	return script
}

// sanitizeSpokenText strips markdown artifacts that would otherwise be read
// aloud by the synthesizer.
func sanitizeSpokenText(text string) string {
	return textutil.SanitizeSpokenText(text)
}
