package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Brian speaks text through the streamelements "Brian" voice. It is
// not a chat provider; the orchestrator exposes it separately for the
// text-to-speech endpoint.
type Brian struct {
	URL    string
	client *http.Client
}

func NewBrian(client *http.Client) *Brian {
	return &Brian{
		URL:    "https://api.streamelements.com/kappa/v2/speech",
		client: client,
	}
}

// Speak returns the rendered MP3 bytes for the given text.
func (p *Brian) Speak(ctx context.Context, text string) ([]byte, error) {
	u := p.URL + "?voice=Brian&text=" + url.QueryEscape(text)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("speech endpoint returned %s", resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
}
