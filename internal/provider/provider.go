// Package provider holds the adapters for the free text-completion
// backends and the registry the orchestrator selects them from. Every
// adapter is a stateless wrapper over one HTTP endpoint; failures of
// any kind come back as a plain error and nothing else.
//
// The OpenAI-compatible mirrors go through go-openai with their
// BaseURL pointed at the mirror; backends with bespoke envelopes are
// called over net/http directly.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"gpt-relay/internal/domain"
)

const userAgent = "Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/119.0"

const maxBodyBytes = 4 << 20

var errEmptyCompletion = errors.New("empty completion")

// NewHTTPClient returns the shared client used by all adapters. The
// timeout is the hard per-call bound; the orchestrator additionally
// passes a per-attempt context deadline.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// headerTransport injects the browser headers a mirror expects before
// handing the request to the underlying transport.
type headerTransport struct {
	headers map[string]string
	next    http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", userAgent)
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	next := t.next
	if next == nil {
		next = http.DefaultTransport
	}
	return next.RoundTrip(req)
}

// newOpenAIClient builds a go-openai client against an alternative
// base URL, reusing the shared client's timeout and transport.
func newOpenAIClient(base *http.Client, baseURL, token string, headers map[string]string) *openai.Client {
	cfg := openai.DefaultConfig(token)
	cfg.BaseURL = baseURL
	cfg.HTTPClient = &http.Client{
		Timeout:   base.Timeout,
		Transport: &headerTransport{headers: headers, next: base.Transport},
	}
	return openai.NewClientWithConfig(cfg)
}

// openAIMessages converts the conversation log to the request shape.
func openAIMessages(history domain.Conversation) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, len(history))
	for i, msg := range history {
		messages[i] = openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
	}
	return messages
}

// completionText extracts choices[0].message.content.
func completionText(resp openai.ChatCompletionResponse) (string, error) {
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", errEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}

// postJSON sends payload to url and returns the raw response body.
// Non-2xx statuses are errors. Used by the bespoke-envelope backends.
func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
}

// chatCompletion is the OpenAI-style response envelope; remix answers
// in it even though its request shape is bespoke.
type chatCompletion struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// completionContent extracts choices[0].message.content from raw JSON.
func completionContent(body []byte) (string, error) {
	var cc chatCompletion
	if err := json.Unmarshal(body, &cc); err != nil {
		return "", err
	}
	if len(cc.Choices) == 0 || cc.Choices[0].Message.Content == "" {
		return "", errEmptyCompletion
	}
	return cc.Choices[0].Message.Content, nil
}
