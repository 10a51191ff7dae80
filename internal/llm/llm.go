package llm

import (
	"context"
	"errors"

	"campaign-backend/internal/suggestion"
)

// Advisor returns the raw advisory text for a listing. The text is expected
// to contain a JSON suggestion bundle, possibly wrapped in a code fence.
type Advisor interface {
	Suggest(ctx context.Context, product suggestion.ProductInfo) (string, error)
}

// ReplyInput is the conversational turn sent to a Replier.
type ReplyInput struct {
	Message string
	Product *suggestion.ProductInfo
	Images  []string
}

// Replier produces a free-text assistant reply.
type Replier interface {
	Reply(ctx context.Context, in ReplyInput) (string, error)
}

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("LLM not implemented")

// PlaceholderClient is used when no provider is configured. Every advisory
// call fails, so classification always goes through the heuristic path.
type PlaceholderClient struct{}

func (PlaceholderClient) Suggest(ctx context.Context, product suggestion.ProductInfo) (string, error) {
	return "", ErrNotImplemented
}

func (PlaceholderClient) Reply(ctx context.Context, in ReplyInput) (string, error) {
	return "", ErrNotImplemented
}

var (
	_ Advisor = PlaceholderClient{}
	_ Replier = PlaceholderClient{}
)
