// Package notifications pushes pipeline milestones to operators.
//
// The default service posts to an ntfy topic from config.toml: episode
// completed, generation failed, feed reconciled, daemon errors. When no
// topic is configured every publish is a no-op, so callers never guard
// their Publish calls.
//
// Workflow code depends only on the Service interface; alternative
// transports slot in behind it.
package notifications
