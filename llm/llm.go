package llm

import (
	"context"
	"time"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

type Result struct {
	Text     string
	Usage    Usage
	Duration time.Duration
}

type Request struct {
	Model    string
	Messages []Message
}

// Client is the outbound boundary to the remote language-model API. The
// state engine never touches it; only the command layer does.
type Client interface {
	Chat(ctx context.Context, req Request) (Result, error)
	ListModels(ctx context.Context) ([]string, error)
}
