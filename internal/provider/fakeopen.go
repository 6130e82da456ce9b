package provider

import (
	"context"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"gpt-relay/internal/domain"
)

// FakeOpen fronts the ai.fakeopen.com shared-pool mirror (gpt-3.5-turbo).
type FakeOpen struct {
	BaseURL string
	client  *http.Client
}

func NewFakeOpen(client *http.Client) *FakeOpen {
	return &FakeOpen{
		BaseURL: "https://ai.fakeopen.com/v1",
		client:  client,
	}
}

func (p *FakeOpen) Name() string { return "fakeopen" }

func (p *FakeOpen) Complete(ctx context.Context, history domain.Conversation) (string, error) {
	c := newOpenAIClient(p.client, p.BaseURL, "pk-this-is-a-real-free-pool-token-for-everyone", map[string]string{
		"Origin":  "https://chat.geekgpt.org",
		"Referer": "https://chat.geekgpt.org/",
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
