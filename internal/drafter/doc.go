// Package drafter turns a research bundle into a multi-speaker episode
// script. A primary LLM backend plus an ordered fallback chain are tried
// until one yields a script that parses and passes role validation; the
// word budget derived from the target duration is a prompt constraint only.
package drafter
