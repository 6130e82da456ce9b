package store

import (
	"context"
	"sync"

	"gpt-relay/internal/domain"
)

// MemoryRepository is an in-process AccountRepository. It backs tests
// and single-node development runs; production wiring uses the redis
// repository instead.
type MemoryRepository struct {
	mu       sync.RWMutex
	accounts map[string]*memoryAccount
	defaults []string
}

type memoryAccount struct {
	log        domain.Conversation
	providers  map[string]bool
	pending    string
	hasPending bool
}

// NewMemoryRepository creates an empty repository. defaults is the set
// of provider names every new account starts with, all enabled.
func NewMemoryRepository(defaults []string) *MemoryRepository {
	return &MemoryRepository{
		accounts: make(map[string]*memoryAccount),
		defaults: defaults,
	}
}

func (r *MemoryRepository) Create(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[userID]; ok {
		return nil
	}
	providers := make(map[string]bool, len(r.defaults))
	for _, name := range r.defaults {
		providers[name] = true
	}
	r.accounts[userID] = &memoryAccount{providers: providers}
	return nil
}

func (r *MemoryRepository) History(ctx context.Context, userID string) (domain.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	acc, ok := r.accounts[userID]
	if !ok {
		return nil, domain.ErrNoAccount
	}
	log := make(domain.Conversation, len(acc.log))
	copy(log, acc.log)
	return log, nil
}

func (r *MemoryRepository) Append(ctx context.Context, userID string, msg domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc, ok := r.accounts[userID]
	if !ok {
		return domain.ErrNoAccount
	}
	acc.log = append(acc.log, msg)
	return nil
}

func (r *MemoryRepository) ReplaceLast(ctx context.Context, userID string, msg domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc, ok := r.accounts[userID]
	if !ok {
		return domain.ErrNoAccount
	}
	if last, ok := acc.log.Last(); !ok || last.Role != domain.RoleAssistant {
		return domain.ErrNotAssistantTail
	}
	acc.log[len(acc.log)-1] = msg
	return nil
}

func (r *MemoryRepository) DropLast(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc, ok := r.accounts[userID]
	if !ok {
		return domain.ErrNoAccount
	}
	if len(acc.log) > 0 {
		acc.log = acc.log[:len(acc.log)-1]
	}
	return nil
}

func (r *MemoryRepository) Clear(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc, ok := r.accounts[userID]
	if !ok {
		return domain.ErrNoAccount
	}
	acc.log = nil
	return nil
}

func (r *MemoryRepository) SetSystemPrompt(ctx context.Context, userID, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc, ok := r.accounts[userID]
	if !ok {
		return domain.ErrNoAccount
	}
	msg := domain.Message{Role: domain.RoleSystem, Content: text}
	if len(acc.log) > 0 && acc.log[0].Role == domain.RoleSystem {
		acc.log[0] = msg
		return nil
	}
	acc.log = append(domain.Conversation{msg}, acc.log...)
	return nil
}

func (r *MemoryRepository) RemoveSystemPrompt(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc, ok := r.accounts[userID]
	if !ok {
		return domain.ErrNoAccount
	}
	for i, m := range acc.log {
		if m.Role == domain.RoleSystem {
			acc.log = append(acc.log[:i], acc.log[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *MemoryRepository) SetPending(ctx context.Context, userID, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc, ok := r.accounts[userID]
	if !ok {
		return domain.ErrNoAccount
	}
	acc.pending = text
	acc.hasPending = true
	return nil
}

func (r *MemoryRepository) Pending(ctx context.Context, userID string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	acc, ok := r.accounts[userID]
	if !ok {
		return "", false, domain.ErrNoAccount
	}
	return acc.pending, acc.hasPending, nil
}

func (r *MemoryRepository) Providers(ctx context.Context, userID string) (map[string]bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	acc, ok := r.accounts[userID]
	if !ok {
		return nil, domain.ErrNoAccount
	}
	providers := make(map[string]bool, len(acc.providers))
	for name, enabled := range acc.providers {
		providers[name] = enabled
	}
	return providers, nil
}

func (r *MemoryRepository) SetProviderEnabled(ctx context.Context, userID, name string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc, ok := r.accounts[userID]
	if !ok {
		return domain.ErrNoAccount
	}
	acc.providers[name] = enabled
	return nil
}
