package research

import (
	"encoding/json"
	"time"
)

// Citation is one source document discovered for a topic.
type Citation struct {
	Title       string    `json:"title"`
	Authors     []string  `json:"authors,omitempty"`
	Abstract    string    `json:"abstract,omitempty"`
	Source      string    `json:"source"`
	URL         string    `json:"url,omitempty"`
	DOI         string    `json:"doi,omitempty"`
	PublishedAt time.Time `json:"published_at,omitempty"`
	// Relevance is the cosine similarity of the citation against the topic,
	// in [0, 1]. Computed during aggregation.
	Relevance float64 `json:"relevance"`
}

// Bundle is the aggregated research product handed to the drafting stage.
type Bundle struct {
	Topic            string     `json:"topic"`
	Citations        []Citation `json:"citations"`
	QualityScore     float64    `json:"quality_score"`
	Themes           []string   `json:"themes,omitempty"`
	ProvidersQueried []string   `json:"providers_queried"`
	ProviderErrors   []string   `json:"provider_errors,omitempty"`
	GatheredAt       time.Time  `json:"gathered_at"`
}

// Encode serializes the bundle for persistence on the job record.
func (b Bundle) Encode() (string, error) {
	encoded, err := json.Marshal(b)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

// DecodeBundle parses a bundle previously stored on a job record.
func DecodeBundle(raw string) (Bundle, error) {
	var bundle Bundle
	if err := json.Unmarshal([]byte(raw), &bundle); err != nil {
		return Bundle{}, err
	}
	return bundle, nil
}
