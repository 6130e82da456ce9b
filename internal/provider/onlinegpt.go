package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"gpt-relay/internal/domain"
)

// OnlineGPT fronts the onlinegpt.org WordPress chat widget. The widget
// keys conversations on throwaway session and chat ids, so each call
// mints fresh ones.
type OnlineGPT struct {
	URL    string
	client *http.Client
}

func NewOnlineGPT(client *http.Client) *OnlineGPT {
	return &OnlineGPT{
		URL:    "https://onlinegpt.org/chatgpt/wp-json/mwai-ui/v1/chats/submit",
		client: client,
	}
}

func (p *OnlineGPT) Name() string { return "onlinegpt" }

func (p *OnlineGPT) Complete(ctx context.Context, history domain.Conversation) (string, error) {
	if len(history) == 0 {
		return "", errEmptyCompletion
	}
	headers := map[string]string{
		"Accept":         "text/event-stream",
		"Origin":         "https://onlinegpt.org",
		"Referer":        "https://onlinegpt.org/chat/",
		"Sec-Fetch-Mode": "cors",
		"Sec-Fetch-Site": "same-origin",
	}
	body, err := postJSON(ctx, p.client, p.URL, headers, map[string]any{
		"botId":      "default",
		"customId":   nil,
		"session":    uuid.NewString(),
		"chatId":     uuid.NewString(),
		"contextId":  9,
		"messages":   history,
		"newMessage": history[len(history)-1].Content,
		"newImageId": nil,
		"stream":     false,
	})
	if err != nil {
		return "", err
	}
	var out struct {
		Reply string `json:"reply"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode reply: %w", err)
	}
	if out.Reply == "" {
		return "", errEmptyCompletion
	}
	return out.Reply, nil
}
