package domain

import (
	"context"
	"errors"
	"fmt"
)

// Insight is the structured output requested from the completion provider.
type Insight struct {
	Text            string
	FollowUpSubject string
	FollowUpBody    string
}

// CompletionRequest asks the provider for a JSON object response.
type CompletionRequest struct {
	System string
	User   string
}

// CompletionClient is the AI completion provider.
type CompletionClient interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

var (
	// ErrGenerationFailed matches every generation failure below.
	ErrGenerationFailed   = errors.New("generation_failed")
	ErrEmptyResponse      = fmt.Errorf("%w: empty response", ErrGenerationFailed)
	ErrMalformedResponse  = fmt.Errorf("%w: malformed response", ErrGenerationFailed)
	ErrIncompleteResponse = fmt.Errorf("%w: incomplete response", ErrGenerationFailed)
)
