package research

import "context"

// Provider searches one scholarly index for citations matching a topic.
// Providers that support subject filtering may use the category; others
// ignore it.
type Provider interface {
	Name() string
	Search(ctx context.Context, topic, category string, limit int) ([]Citation, error)
}
