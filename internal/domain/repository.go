package domain

import "context"

// AccountRepository is the conversation store contract. It does not
// care whether the backing store is redis or an in-process map.
//
// Every mutating operation is atomic on its own: a concurrent reader
// never observes a half-written message. Serialization of whole turns
// per user is the orchestrator's job, not the store's.
type AccountRepository interface {
	// Create makes the account with an empty log and every provider
	// enabled. Creating an existing account is a no-op.
	Create(ctx context.Context, userID string) error

	// History returns the full log. ErrNoAccount if the account is missing.
	History(ctx context.Context, userID string) (Conversation, error)

	// Append adds a message at the tail of the log.
	Append(ctx context.Context, userID string, msg Message) error

	// ReplaceLast overwrites the tail message in place. Fails with
	// ErrNotAssistantTail unless the tail is an assistant message.
	ReplaceLast(ctx context.Context, userID string, msg Message) error

	// DropLast removes the tail message. Rollback hook for failed turns.
	DropLast(ctx context.Context, userID string) error

	// Clear truncates the log to empty. The account, its provider
	// settings and its pending prompt survive.
	Clear(ctx context.Context, userID string) error

	// SetSystemPrompt inserts or replaces the singular system message at
	// the head of the log.
	SetSystemPrompt(ctx context.Context, userID, text string) error

	// RemoveSystemPrompt deletes the system message if present.
	RemoveSystemPrompt(ctx context.Context, userID string) error

	// SetPending records the latest user-authored prompt.
	SetPending(ctx context.Context, userID, text string) error

	// Pending returns the recorded prompt, ok=false when none was set.
	Pending(ctx context.Context, userID string) (string, bool, error)

	// Providers returns the per-user enablement map, provider name -> enabled.
	Providers(ctx context.Context, userID string) (map[string]bool, error)

	// SetProviderEnabled flips one provider for one user.
	SetProviderEnabled(ctx context.Context, userID, name string, enabled bool) error
}
