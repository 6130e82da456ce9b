package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gpt-relay/internal/domain"
)

func testHistory() domain.Conversation {
	return domain.Conversation{
		{Role: domain.RoleUser, Content: "hi"},
		{Role: domain.RoleAssistant, Content: "hello"},
		{Role: domain.RoleUser, Content: "tell me more"},
	}
}

func TestDeepInfraComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "web-embed", r.Header.Get("X-Deepinfra-Source"))
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))

		var got map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "meta-llama/Llama-2-70b-chat-hf", got["model"])
		assert.Len(t, got["messages"], 3)
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"an answer"}}]}`))
	}))
	defer srv.Close()

	p := NewDeepInfra(srv.Client())
	p.BaseURL = srv.URL

	out, err := p.Complete(context.Background(), testHistory())
	require.NoError(t, err)
	assert.Equal(t, "an answer", out)
}

func TestFakeOpenSendsPoolToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer pk-this-is-a-real-free-pool-token-for-everyone", r.Header.Get("Authorization"))
		assert.Equal(t, "https://chat.geekgpt.org", r.Header.Get("Origin"))
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"pooled"}}]}`))
	}))
	defer srv.Close()

	p := NewFakeOpen(srv.Client())
	p.BaseURL = srv.URL

	out, err := p.Complete(context.Background(), testHistory())
	require.NoError(t, err)
	assert.Equal(t, "pooled", out)
}

func TestCompleteNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewFstha(srv.Client())
	p.BaseURL = srv.URL

	_, err := p.Complete(context.Background(), testHistory())
	assert.Error(t, err)
}

func TestCompleteMalformedBodyIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	p := NewFakeOpen(srv.Client())
	p.BaseURL = srv.URL

	_, err := p.Complete(context.Background(), testHistory())
	assert.Error(t, err)
}

func TestCompleteEmptyChoicesIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	p := NewFakeOpen(srv.Client())
	p.BaseURL = srv.URL

	_, err := p.Complete(context.Background(), testHistory())
	assert.ErrorIs(t, err, errEmptyCompletion)
}

func TestFreeGPT4ReassemblesStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n" +
			"data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n" +
			"data: [DONE]\n\n"))
	}))
	defer srv.Close()

	p := NewFreeGPT4(srv.Client())
	p.BaseURL = srv.URL

	out, err := p.Complete(context.Background(), testHistory())
	require.NoError(t, err)
	assert.Equal(t, "Hello", out)
}

func TestOnlineGPTReadsReplyField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var got map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "tell me more", got["newMessage"])
		assert.NotEmpty(t, got["session"])
		w.Write([]byte(`{"reply":"sure"}`))
	}))
	defer srv.Close()

	p := NewOnlineGPT(srv.Client())
	p.URL = srv.URL

	out, err := p.Complete(context.Background(), testHistory())
	require.NoError(t, err)
	assert.Equal(t, "sure", out)
}

func TestUncensoredParsesFinalChunk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var got map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "tell me more", got["query"])
		assert.Len(t, got["history"], 2)
		w.Write([]byte("data: {\"data\":{\"message\":\"part\"}}\n" +
			"data: {\"data\":{\"message\":\"full answer\"}}"))
	}))
	defer srv.Close()

	p := NewUncensored(srv.Client())
	p.URL = srv.URL

	out, err := p.Complete(context.Background(), testHistory())
	require.NoError(t, err)
	assert.Equal(t, "full answer", out)
}

func TestBrianSpeak(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Brian", r.URL.Query().Get("voice"))
		assert.Equal(t, "hello world", r.URL.Query().Get("text"))
		w.Write([]byte{0xff, 0xfb})
	}))
	defer srv.Close()

	p := NewBrian(srv.Client())
	p.URL = srv.URL

	audio, err := p.Speak(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xfb}, audio)
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	client := NewHTTPClient(time.Second)
	_, err := NewRegistry(NewRemix(client), NewRemix(client))
	assert.Error(t, err)
}

func TestDefaultsRegistersAllChatProviders(t *testing.T) {
	reg, err := Defaults(NewHTTPClient(time.Second))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"deepinfra", "fakeopen", "freegpt4", "fstha",
		"onlinegpt", "remix", "uncensored",
	}, reg.Names())
}
