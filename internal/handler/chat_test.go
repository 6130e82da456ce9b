package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gpt-relay/internal/chat"
	"gpt-relay/internal/domain"
	"gpt-relay/internal/provider"
	"gpt-relay/internal/store"
)

type stubProvider struct {
	name  string
	reply string
	err   error
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Complete(context.Context, domain.Conversation) (string, error) {
	return s.reply, s.err
}

func newTestRouter(t *testing.T, providers ...domain.Provider) (*gin.Engine, *store.MemoryRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = p.Name()
	}
	repo := store.NewMemoryRepository(names)
	reg, err := provider.NewRegistry(providers...)
	require.NoError(t, err)

	orchestrator := chat.NewOrchestrator(repo, reg, chat.Options{ProviderTimeout: time.Second})
	tts := provider.NewBrian(http.DefaultClient)

	r := gin.New()
	h := NewChatHandler(orchestrator, tts)
	h.RegisterRoutes(r)
	return r, repo
}

func doJSON(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateAccount(t *testing.T) {
	r, repo := newTestRouter(t, &stubProvider{name: "a", reply: "x"})

	w := doJSON(r, http.MethodPost, "/api/v1/accounts", gin.H{"user_id": "u1"})
	assert.Equal(t, http.StatusCreated, w.Code)

	_, err := repo.History(context.Background(), "u1")
	assert.NoError(t, err)
}

func TestChatWithoutAccountIs404(t *testing.T) {
	r, _ := newTestRouter(t, &stubProvider{name: "a", reply: "x"})

	w := doJSON(r, http.MethodPost, "/api/v1/chat", gin.H{"user_id": "ghost", "message": "hi"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChatReturnsReplyAndEscapedDisplay(t *testing.T) {
	r, repo := newTestRouter(t, &stubProvider{name: "a", reply: "a_b.c"})
	require.NoError(t, repo.Create(context.Background(), "u1"))

	w := doJSON(r, http.MethodPost, "/api/v1/chat", gin.H{"user_id": "u1", "message": "hi"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Reply   string `json:"reply"`
		Display string `json:"display"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "a_b.c", resp.Reply)
	assert.Equal(t, `a\_b\.c`, resp.Display)
}

func TestChatAllProvidersFailedIs502(t *testing.T) {
	r, repo := newTestRouter(t, &stubProvider{name: "a", err: errors.New("down")})
	require.NoError(t, repo.Create(context.Background(), "u1"))

	w := doJSON(r, http.MethodPost, "/api/v1/chat", gin.H{"user_id": "u1", "message": "hi"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "none of the providers responded")
}

func TestRegenerateWithoutPendingIs409(t *testing.T) {
	r, repo := newTestRouter(t, &stubProvider{name: "a", reply: "x"})
	require.NoError(t, repo.Create(context.Background(), "u1"))

	w := doJSON(r, http.MethodPost, "/api/v1/chat/regenerate", gin.H{"user_id": "u1"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHistoryRoundTrip(t *testing.T) {
	r, repo := newTestRouter(t, &stubProvider{name: "a", reply: "pong"})
	require.NoError(t, repo.Create(context.Background(), "u1"))

	w := doJSON(r, http.MethodPost, "/api/v1/chat", gin.H{"user_id": "u1", "message": "ping"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/api/v1/chat/history?user_id=u1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Messages []domain.Message `json:"messages"`
		Total    int              `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)

	w = doJSON(r, http.MethodDelete, "/api/v1/chat/history?user_id=u1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	history, err := repo.History(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestToggleMode(t *testing.T) {
	r, repo := newTestRouter(t, &stubProvider{name: "a", reply: "x"})
	require.NoError(t, repo.Create(context.Background(), "u1"))

	w := doJSON(r, http.MethodPost, "/api/v1/chat/mode", gin.H{"user_id": "u1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"enabled":true`)

	w = doJSON(r, http.MethodPost, "/api/v1/chat/mode", gin.H{"user_id": "u1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"enabled":false`)
}

func TestSetProviderUnknownNameIs400(t *testing.T) {
	r, repo := newTestRouter(t, &stubProvider{name: "a", reply: "x"})
	require.NoError(t, repo.Create(context.Background(), "u1"))

	w := doJSON(r, http.MethodPut, "/api/v1/providers/nope", gin.H{"user_id": "u1", "enabled": false})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSetProviderDisables(t *testing.T) {
	r, repo := newTestRouter(t, &stubProvider{name: "a", reply: "x"})
	require.NoError(t, repo.Create(context.Background(), "u1"))

	w := doJSON(r, http.MethodPut, "/api/v1/providers/a", gin.H{"user_id": "u1", "enabled": false})
	require.Equal(t, http.StatusOK, w.Code)

	providers, err := repo.Providers(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, providers["a"])
}

func TestTextToSpeech(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("mp3-bytes"))
	}))
	defer srv.Close()

	gin.SetMode(gin.TestMode)
	repo := store.NewMemoryRepository(nil)
	reg, err := provider.NewRegistry()
	require.NoError(t, err)
	orchestrator := chat.NewOrchestrator(repo, reg, chat.Options{})

	tts := provider.NewBrian(srv.Client())
	tts.URL = srv.URL

	r := gin.New()
	NewChatHandler(orchestrator, tts).RegisterRoutes(r)

	w := doJSON(r, http.MethodGet, "/api/v1/tts?text=hello", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "audio/mpeg", w.Header().Get("Content-Type"))
	assert.Equal(t, "mp3-bytes", w.Body.String())
}
