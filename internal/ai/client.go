package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const systemPrompt = "You are the LearnHub study assistant. Answer in the language of the question, briefly and in a friendly tone."

type ClientConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client calls POST {BaseURL}/chat/completions.
type Client struct {
	http  *resty.Client
	model string
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}

	http := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetAuthToken(cfg.APIKey).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")

	return &Client{http: http, model: cfg.Model}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *Client) Ask(ctx context.Context, req AskRequest) (string, error) {
	var out chatResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(chatRequest{
			Model: c.model,
			Messages: []chatMessage{
				{Role: "system", Content: systemPrompt},
				{Role: "user", Content: "Context: " + req.Context + "\nQuestion: " + req.Question},
			},
		}).
		SetResult(&out).
		Post("/chat/completions")

	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if resp.IsError() {
		return "", fmt.Errorf("chat completion: provider returned %d", resp.StatusCode())
	}

	if len(out.Choices) == 0 {
		return "", fmt.Errorf("chat completion: empty choices")
	}

	return out.Choices[0].Message.Content, nil
}
