package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gpt-relay/internal/domain"
)

func newTestRepo(t *testing.T) *MemoryRepository {
	t.Helper()
	repo := NewMemoryRepository([]string{"alpha", "beta"})
	require.NoError(t, repo.Create(context.Background(), "u1"))
	return repo
}

func TestMissingAccount(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository(nil)

	_, err := repo.History(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrNoAccount)

	err = repo.Append(ctx, "ghost", domain.Message{Role: domain.RoleUser, Content: "hi"})
	assert.ErrorIs(t, err, domain.ErrNoAccount)
}

func TestCreateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	require.NoError(t, repo.Append(ctx, "u1", domain.Message{Role: domain.RoleUser, Content: "hi"}))
	require.NoError(t, repo.Create(ctx, "u1"))

	log, err := repo.History(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, log, 1)
}

func TestAppendAndHistoryIsolation(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	require.NoError(t, repo.Append(ctx, "u1", domain.Message{Role: domain.RoleUser, Content: "hi"}))
	log, err := repo.History(ctx, "u1")
	require.NoError(t, err)

	// Mutating the returned slice must not leak into the store.
	log[0].Content = "tampered"
	log2, err := repo.History(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "hi", log2[0].Content)
}

func TestReplaceLastRequiresAssistantTail(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	err := repo.ReplaceLast(ctx, "u1", domain.Message{Role: domain.RoleAssistant, Content: "x"})
	assert.ErrorIs(t, err, domain.ErrNotAssistantTail)

	require.NoError(t, repo.Append(ctx, "u1", domain.Message{Role: domain.RoleUser, Content: "q"}))
	err = repo.ReplaceLast(ctx, "u1", domain.Message{Role: domain.RoleAssistant, Content: "x"})
	assert.ErrorIs(t, err, domain.ErrNotAssistantTail)

	require.NoError(t, repo.Append(ctx, "u1", domain.Message{Role: domain.RoleAssistant, Content: "a1"}))
	require.NoError(t, repo.ReplaceLast(ctx, "u1", domain.Message{Role: domain.RoleAssistant, Content: "a2"}))

	log, err := repo.History(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, log, 2)
	assert.Equal(t, "a2", log[1].Content)
}

func TestDropLast(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	require.NoError(t, repo.DropLast(ctx, "u1")) // empty log is a no-op

	require.NoError(t, repo.Append(ctx, "u1", domain.Message{Role: domain.RoleUser, Content: "q"}))
	require.NoError(t, repo.DropLast(ctx, "u1"))

	log, err := repo.History(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, log)
}

func TestSystemPromptAtHead(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	require.NoError(t, repo.Append(ctx, "u1", domain.Message{Role: domain.RoleUser, Content: "q"}))
	require.NoError(t, repo.SetSystemPrompt(ctx, "u1", "be brief"))

	log, err := repo.History(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, log, 2)
	assert.Equal(t, domain.RoleSystem, log[0].Role)
	assert.Equal(t, "be brief", log[0].Content)

	// Setting again replaces, never duplicates.
	require.NoError(t, repo.SetSystemPrompt(ctx, "u1", "be verbose"))
	log, err = repo.History(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, log, 2)
	assert.Equal(t, "be verbose", log[0].Content)

	require.NoError(t, repo.RemoveSystemPrompt(ctx, "u1"))
	log, err = repo.History(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, domain.RoleUser, log[0].Role)

	// Removing when absent is a no-op.
	require.NoError(t, repo.RemoveSystemPrompt(ctx, "u1"))
}

func TestClearKeepsAccountState(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	require.NoError(t, repo.Append(ctx, "u1", domain.Message{Role: domain.RoleUser, Content: "q"}))
	require.NoError(t, repo.SetProviderEnabled(ctx, "u1", "alpha", false))
	require.NoError(t, repo.SetPending(ctx, "u1", "q"))
	require.NoError(t, repo.Clear(ctx, "u1"))

	log, err := repo.History(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, log)

	providers, err := repo.Providers(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, providers["alpha"])
	assert.True(t, providers["beta"])

	pending, ok, err := repo.Pending(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "q", pending)
}

func TestPendingUnsetByDefault(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_, ok, err := repo.Pending(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDefaultProvidersEnabled(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	providers, err := repo.Providers(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"alpha": true, "beta": true}, providers)
}
