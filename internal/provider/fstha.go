package provider

import (
	"context"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"gpt-relay/internal/domain"
)

// Fstha fronts chat.fstha.com (gpt-3.5-turbo).
type Fstha struct {
	BaseURL string
	client  *http.Client
}

func NewFstha(client *http.Client) *Fstha {
	return &Fstha{
		BaseURL: "https://chat.fstha.com/api/openai/v1",
		client:  client,
	}
}

func (p *Fstha) Name() string { return "fstha" }

func (p *Fstha) Complete(ctx context.Context, history domain.Conversation) (string, error) {
	c := newOpenAIClient(p.client, p.BaseURL, "ak-chatgpt-nice", map[string]string{
		"Origin":           "https://chat.fstha.com",
		"Referer":          "https://chat.fstha.com/",
		"x-requested-with": "XMLHttpRequest",
	})
	resp, err := c.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       openai.GPT3Dot5Turbo,
		Messages:    openAIMessages(history),
		Temperature: 0.5,
		TopP:        0.5,
	})
	if err != nil {
		return "", err
	}
	return completionText(resp)
}
