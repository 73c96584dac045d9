package drafter

import (
	"encoding/json"
	"strings"
)

// Segment is one speaker turn in the episode script.
type Segment struct {
	Role             string  `json:"role"`
	Text             string  `json:"text"`
	EstimatedSeconds float64 `json:"estimated_seconds"`
}

// Script is the structured drafting product: episode metadata plus the
// ordered speaker segments handed to synthesis.
type Script struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Segments    []Segment `json:"segments"`
	Model       string    `json:"model,omitempty"`
}

// WordCount returns the total spoken word count across all segments.
func (s *Script) WordCount() int {
	var count int
	for _, segment := range s.Segments {
		count += len(strings.Fields(segment.Text))
	}
	return count
}

// Roles returns the distinct speaker roles in script order.
func (s *Script) Roles() []string {
	seen := make(map[string]struct{})
	var roles []string
	for _, segment := range s.Segments {
		if _, ok := seen[segment.Role]; ok {
			continue
		}
		seen[segment.Role] = struct{}{}
		roles = append(roles, segment.Role)
	}
	return roles
}

// Encode serializes the script for persistence on the job record.
func (s *Script) Encode() (string, error) {
	encoded, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

// DecodeScript parses a script previously stored on a job record.
func DecodeScript(raw string) (*Script, error) {
	var script Script
	if err := json.Unmarshal([]byte(raw), &script); err != nil {
		return nil, err
	}
	return &script, nil
}
