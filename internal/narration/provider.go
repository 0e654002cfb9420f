// Package narration turns game events into prose through a text generation
// provider. Providers are interchangeable: an OpenAI-compatible HTTP API, or a
// narrator service reached over gRPC. A FallbackClient tries a primary then a
// fallback provider, and the Narrator degrades to fixed text when both fail.
package narration

import "context"

// #region provider
// Provider generates text for a prompt.
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// #endregion provider
