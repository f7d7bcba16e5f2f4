// Package ai answers study questions through an OpenAI-compatible
// chat-completions API.
package ai

import (
	"context"
	"errors"
)

// ErrUnavailable means the assistant is switched off or its circuit is open.
var ErrUnavailable = errors.New("assistant unavailable")

type AskRequest struct {
	Question string `json:"question" binding:"required,max=2000"`
	Context  string `json:"context" binding:"omitempty,max=8000"`
}

type Asker interface {
	Ask(ctx context.Context, req AskRequest) (string, error)
}

// Disabled is used when no API key is configured.
type Disabled struct{}

func (Disabled) Ask(context.Context, AskRequest) (string, error) {
	return "", ErrUnavailable
}
