package oracle

import (
	"context"
	"fmt"
)

// Request is a single structured-output prompt.
type Request struct {
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// Oracle is one external language-model provider. Generate returns the raw
// completion text; the chain decides whether it satisfies the contract.
type Oracle interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}

// StatusError is returned by providers that answered with a non-2xx status.
type StatusError struct {
	Provider   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.Provider, e.StatusCode)
}

const (
	OutcomeOK        = "ok"
	OutcomeTimeout   = "timeout"
	OutcomeTransport = "transport"
	OutcomeParse     = "parse"
	OutcomeSchema    = "schema"
)
