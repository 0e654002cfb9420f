package narration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrNoProvider is returned when a FallbackClient has nothing to call.
var ErrNoProvider = errors.New("narration: no provider configured")

// #region errors
// AttemptError records one failed provider call.
type AttemptError struct {
	Provider string
	Err      error
}

// GenerationError is returned when every configured provider failed.
type GenerationError struct {
	Attempts []AttemptError
}

func (e *GenerationError) Error() string {
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = fmt.Sprintf("%s: %v", a.Provider, a.Err)
	}
	return "narration failed: " + strings.Join(parts, "; ")
}

func (e *GenerationError) Unwrap() []error {
	out := make([]error, len(e.Attempts))
	for i, a := range e.Attempts {
		out[i] = a.Err
	}
	return out
}

// #endregion errors

// #region client
// Result is a generated text and the provider that produced it.
type Result struct {
	Text     string
	Provider string
}

// FallbackClient calls primary, then fallback if primary fails. Each call
// gets its own timeout. Either provider may be nil.
type FallbackClient struct {
	primary  Provider
	fallback Provider
	timeout  time.Duration
	log      *zap.Logger
}

// NewFallbackClient builds a client. A zero timeout means 30s.
func NewFallbackClient(primary, fallback Provider, timeout time.Duration, logger *zap.Logger) *FallbackClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FallbackClient{primary: primary, fallback: fallback, timeout: timeout, log: logger.Named("narration")}
}

// Generate returns the first successful result.
func (c *FallbackClient) Generate(ctx context.Context, prompt string) (Result, error) {
	var attempts []AttemptError
	for _, p := range []Provider{c.primary, c.fallback} {
		if p == nil {
			continue
		}
		text, err := c.attempt(ctx, p, prompt)
		if err == nil {
			return Result{Text: text, Provider: p.Name()}, nil
		}
		c.log.Warn("provider failed", zap.String("provider", p.Name()), zap.Error(err))
		attempts = append(attempts, AttemptError{Provider: p.Name(), Err: err})
		if ctx.Err() != nil {
			break
		}
	}
	if len(attempts) == 0 {
		return Result{}, ErrNoProvider
	}
	return Result{}, &GenerationError{Attempts: attempts}
}

func (c *FallbackClient) attempt(ctx context.Context, p Provider, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return p.Generate(ctx, prompt)
}

// #endregion client
