package provider

import (
	"context"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"gpt-relay/internal/domain"
)

// DeepInfra fronts the deepinfra.com web-embed completion endpoint
// (Llama-2-70b chat).
type DeepInfra struct {
	BaseURL string
	client  *http.Client
}

func NewDeepInfra(client *http.Client) *DeepInfra {
	return &DeepInfra{
		BaseURL: "https://api.deepinfra.com/v1/openai",
		client:  client,
	}
}

func (p *DeepInfra) Name() string { return "deepinfra" }

func (p *DeepInfra) Complete(ctx context.Context, history domain.Conversation) (string, error) {
	c := newOpenAIClient(p.client, p.BaseURL, "", map[string]string{
		"Origin":             "https://deepinfra.com",
		"Referer":            "https://deepinfra.com/",
		"X-Deepinfra-Source": "web-embed",
		"Accept":             "text/event-stream",
		"sec-ch-ua-platform": `"macOS"`,
		"sec-ch-ua-mobile":   "?0",
	})
	resp, err := c.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    "meta-llama/Llama-2-70b-chat-hf",
		Messages: openAIMessages(history),
	})
	if err != nil {
		return "", err
	}
	return completionText(resp)
}
