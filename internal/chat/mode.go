package chat

import (
	"context"
	"fmt"

	"gpt-relay/internal/domain"
)

// CreateAccount onboards a user. Safe to call repeatedly.
func (o *Orchestrator) CreateAccount(ctx context.Context, userID string) error {
	return o.repo.Create(ctx, userID)
}

// History returns the stored conversation log.
func (o *Orchestrator) History(ctx context.Context, userID string) (domain.Conversation, error) {
	return o.repo.History(ctx, userID)
}

// ClearHistory empties the log. Provider settings and the pending
// prompt survive.
func (o *Orchestrator) ClearHistory(ctx context.Context, userID string) error {
	lock := o.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	return o.repo.Clear(ctx, userID)
}

// ToggleMode flips assistant mode and reports the new state. Switching
// in either direction starts from an empty log; enabling additionally
// installs the configured system prompt at its head.
func (o *Orchestrator) ToggleMode(ctx context.Context, userID string) (bool, error) {
	lock := o.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	history, err := o.repo.History(ctx, userID)
	if err != nil {
		return false, err
	}

	if history.HasSystem() {
		if err := o.repo.Clear(ctx, userID); err != nil {
			return false, err
		}
		return false, nil
	}

	if err := o.repo.Clear(ctx, userID); err != nil {
		return false, err
	}
	if err := o.repo.SetSystemPrompt(ctx, userID, o.modePrompt); err != nil {
		return false, err
	}
	return true, nil
}

// SetProviderEnabled flips one provider for one user. The name must
// belong to the configured registry.
func (o *Orchestrator) SetProviderEnabled(ctx context.Context, userID, name string, enabled bool) error {
	if _, ok := o.registry.Get(name); !ok {
		return fmt.Errorf("unknown provider %q", name)
	}

	lock := o.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	return o.repo.SetProviderEnabled(ctx, userID, name, enabled)
}

// Providers returns the per-user enablement map.
func (o *Orchestrator) Providers(ctx context.Context, userID string) (map[string]bool, error) {
	return o.repo.Providers(ctx, userID)
}
