package provider

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"gpt-relay/internal/domain"
)

// FreeGPT4 fronts api.freegpt4.tech. The endpoint only streams, so the
// adapter drains the stream and returns the reassembled completion.
type FreeGPT4 struct {
	BaseURL string
	client  *http.Client
}

func NewFreeGPT4(client *http.Client) *FreeGPT4 {
	return &FreeGPT4{
		BaseURL: "https://api.freegpt4.tech/v1",
		client:  client,
	}
}

func (p *FreeGPT4) Name() string { return "freegpt4" }

func (p *FreeGPT4) Complete(ctx context.Context, history domain.Conversation) (string, error) {
	c := newOpenAIClient(p.client, p.BaseURL, "fg4-5KHloX6hCWhyRnJlZUdQVDQiQSiwwZ8ysll", map[string]string{
		"Accept": "text/event-stream",
	})
	stream, err := c.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:       openai.GPT4,
		Messages:    openAIMessages(history),
		Stream:      true,
		Temperature: 0.5,
		TopP:        0.5,
	})
	if err != nil {
		return "", err
	}
	defer stream.Close()

	var sb strings.Builder
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		if len(chunk.Choices) > 0 {
			sb.WriteString(chunk.Choices[0].Delta.Content)
		}
	}
	if sb.Len() == 0 {
		return "", errEmptyCompletion
	}
	return sb.String(), nil
}
