package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"gpt-relay/internal/domain"
)

// Remix fronts the remixproject.org OpenAI proxy. The proxy takes the
// whole conversation as one prompt string and answers in the OpenAI
// completion envelope.
type Remix struct {
	URL    string
	client *http.Client
}

func NewRemix(client *http.Client) *Remix {
	return &Remix{
		URL:    "https://openai-gpt.remixproject.org/",
		client: client,
	}
}

func (p *Remix) Name() string { return "remix" }

func (p *Remix) Complete(ctx context.Context, history domain.Conversation) (string, error) {
	prompt, err := json.Marshal(history)
	if err != nil {
		return "", fmt.Errorf("encode prompt: %w", err)
	}
	headers := map[string]string{
		"Accept":          "application/json",
		"Accept-Language": "en",
		"Origin":          "https://remix.ethereum.org",
		"Referer":         "https://remix.ethereum.org/",
		"Sec-Fetch-Mode":  "cors",
		"Sec-Fetch-Site":  "cross-site",
	}
	body, err := postJSON(ctx, p.client, p.URL, headers, map[string]any{
		"prompt": string(prompt),
	})
	if err != nil {
		return "", err
	}
	return completionContent(body)
}
