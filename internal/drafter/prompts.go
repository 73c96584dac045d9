package drafter

import (
	"fmt"
	"strings"

	"github.com/garywelz/copernicus-web-sub000/internal/research"
)

const systemPrompt = `You are a science podcast script writer. You write engaging,
accurate dialogue between named speaker roles, grounded in the supplied
citations. Respond with a single JSON object and nothing else, shaped as:
{"title": "...", "description": "...", "segments": [{"role": "HOST", "text": "..."}]}
Rules:
- Use only the speaker roles you are given, uppercase, one role per segment.
- Spoken text must be plain prose: no markdown, no stage directions, no URLs.
- Open with the HOST welcoming listeners and close with the HOST signing off.
- Attribute claims to the research naturally ("a recent study found...").`

// wordTargetBuffer pads long episodes so trimming during synthesis does not
// land the runtime under the requested duration.
const wordTargetBuffer = 1.1

// wordTarget computes the prompt's word budget from the requested duration.
func wordTarget(minutes, wordsPerMinute int) int {
	target := minutes * wordsPerMinute
	if minutes >= 15 {
		target = int(float64(target) * wordTargetBuffer)
	}
	return target
}

func buildUserPrompt(bundle research.Bundle, req Request, wordsPerMinute int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a %d-minute podcast episode script about: %s\n", req.TargetMinutes, req.Topic)
	fmt.Fprintf(&b, "Subject area: %s. Episode kind: %s. Audience level: %s.\n", req.Category, req.Kind, req.Expertise)
	fmt.Fprintf(&b, "Target length: about %d words of spoken dialogue.\n", wordTarget(req.TargetMinutes, wordsPerMinute))
	fmt.Fprintf(&b, "Speaker roles (use these exactly): %s.\n", strings.Join(req.Roles, ", "))

	if len(bundle.Themes) > 0 {
		fmt.Fprintf(&b, "\nRecurring themes in the research: %s.\n", strings.Join(bundle.Themes, ", "))
	}

	b.WriteString("\nResearch citations:\n")
	for i, citation := range bundle.Citations {
		fmt.Fprintf(&b, "%d. %s", i+1, citation.Title)
		if len(citation.Authors) > 0 {
			fmt.Fprintf(&b, " (%s)", strings.Join(citation.Authors, "; "))
		}
		b.WriteString("\n")
		if citation.Abstract != "" {
			fmt.Fprintf(&b, "   %s\n", truncate(citation.Abstract, 500))
		}
	}
	return b.String()
}

func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	cut := text[:limit]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}
