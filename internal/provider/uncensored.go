package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"gpt-relay/internal/domain"
)

// Uncensored fronts a Llama-3-70b relay that splits the conversation
// into the newest query plus the prior turns, and streams its answer
// as SSE with the full text repeated in the final chunk.
type Uncensored struct {
	URL    string
	client *http.Client
}

func NewUncensored(client *http.Client) *Uncensored {
	return &Uncensored{
		URL:    "https://creativeai-68gw.onrender.com/chat",
		client: client,
	}
}

func (p *Uncensored) Name() string { return "uncensored" }

func (p *Uncensored) Complete(ctx context.Context, history domain.Conversation) (string, error) {
	if len(history) == 0 {
		return "", errEmptyCompletion
	}
	body, err := postJSON(ctx, p.client, p.URL, nil, map[string]any{
		"query":   history[len(history)-1].Content,
		"history": history[:len(history)-1],
		"model":   "llama-3-70b",
	})
	if err != nil {
		return "", err
	}

	// Only the last data: chunk carries the complete message.
	chunks := strings.Split(string(body), "data: ")
	var out struct {
		Data struct {
			Message string `json:"message"`
		} `json:"data"`
	}
	if err := json.Unmarshal([]byte(chunks[len(chunks)-1]), &out); err != nil {
		return "", fmt.Errorf("decode final chunk: %w", err)
	}
	if out.Data.Message == "" {
		return "", errEmptyCompletion
	}
	return out.Data.Message, nil
}
