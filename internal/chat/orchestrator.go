// Package chat implements the turn orchestrator: it owns per-user
// conversation state transitions and fans each turn out over the
// enabled providers until one answers.
package chat

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"gpt-relay/internal/domain"
	"gpt-relay/internal/provider"
)

const defaultProviderTimeout = 30 * time.Second

// defaultModePrompt is the system message installed when assistant
// mode is switched on.
const defaultModePrompt = "You are ChatGPT, a large language model trained by OpenAI. " +
	"Follow the user's instructions carefully. Respond using markdown."

// Options carries the orchestrator knobs that come from config.
type Options struct {
	// ProviderTimeout bounds each individual provider attempt.
	ProviderTimeout time.Duration

	// ModePrompt overrides the default system message for assistant mode.
	ModePrompt string

	// Publisher, when set, receives a TurnEvent per committed turn.
	Publisher TurnPublisher
}

// Orchestrator runs complete turns against the conversation store and
// the provider registry. All operations on the same user are
// serialized; different users proceed independently.
type Orchestrator struct {
	repo       domain.AccountRepository
	registry   *provider.Registry
	publisher  TurnPublisher
	timeout    time.Duration
	modePrompt string

	// shuffle permutes the candidate order before the attempt loop.
	// Swappable so tests can pin a deterministic order.
	shuffle func(n int, swap func(i, j int))

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewOrchestrator(repo domain.AccountRepository, registry *provider.Registry, opts Options) *Orchestrator {
	if opts.ProviderTimeout <= 0 {
		opts.ProviderTimeout = defaultProviderTimeout
	}
	if opts.ModePrompt == "" {
		opts.ModePrompt = defaultModePrompt
	}
	return &Orchestrator{
		repo:       repo,
		registry:   registry,
		publisher:  opts.Publisher,
		timeout:    opts.ProviderTimeout,
		modePrompt: opts.ModePrompt,
		shuffle:    rand.Shuffle,
		locks:      make(map[string]*sync.Mutex),
	}
}

// userLock returns the mutex serializing turns for one user. Locks are
// never reclaimed; the map grows with the active user set, which is
// bounded by the account set.
func (o *Orchestrator) userLock(userID string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	l, ok := o.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		o.locks[userID] = l
	}
	return l
}

// Submit runs one full turn: record the prompt, append it to the log,
// try the enabled providers in shuffled order and commit the first
// answer. On total failure the appended prompt is rolled back so the
// log is exactly as before the call.
func (o *Orchestrator) Submit(ctx context.Context, userID, text string) (string, error) {
	lock := o.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	history, err := o.repo.History(ctx, userID)
	if err != nil {
		return "", err
	}
	if err := o.repo.SetPending(ctx, userID, text); err != nil {
		return "", err
	}

	userMsg := domain.Message{Role: domain.RoleUser, Content: text}
	if err := o.repo.Append(ctx, userID, userMsg); err != nil {
		return "", err
	}

	reply, name, err := o.complete(ctx, userID, append(history, userMsg))
	if err != nil {
		o.rollback(ctx, userID)
		return "", err
	}

	// A failed assistant append gets the same rollback, the log must
	// never rest on the lone user message.
	if err := o.repo.Append(ctx, userID, domain.Message{Role: domain.RoleAssistant, Content: reply}); err != nil {
		o.rollback(ctx, userID)
		return "", err
	}
	o.archive(userID, text, reply, name)
	return reply, nil
}

// rollback drops the user message appended at the start of a turn.
func (o *Orchestrator) rollback(ctx context.Context, userID string) {
	if err := o.repo.DropLast(ctx, userID); err != nil {
		log.Printf("chat: rollback for user %s failed: %v", userID, err)
	}
}

// Regenerate replays the recorded pending prompt. When the log ends on
// an assistant turn and carries no system message the new answer
// replaces the old one in place; in every other state the prompt is
// resubmitted as a fresh turn. Total failure leaves the log untouched.
func (o *Orchestrator) Regenerate(ctx context.Context, userID string) (string, error) {
	lock := o.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	pending, ok, err := o.repo.Pending(ctx, userID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", domain.ErrNothingToRegenerate
	}

	history, err := o.repo.History(ctx, userID)
	if err != nil {
		return "", err
	}

	last, hasTail := history.Last()
	if hasTail && last.Role == domain.RoleAssistant && !history.HasSystem() {
		reply, name, err := o.complete(ctx, userID, history.WithoutLastAssistant())
		if err != nil {
			return "", err
		}
		if err := o.repo.ReplaceLast(ctx, userID, domain.Message{Role: domain.RoleAssistant, Content: reply}); err != nil {
			return "", err
		}
		o.archive(userID, pending, reply, name)
		return reply, nil
	}

	userMsg := domain.Message{Role: domain.RoleUser, Content: pending}
	if err := o.repo.Append(ctx, userID, userMsg); err != nil {
		return "", err
	}
	reply, name, err := o.complete(ctx, userID, append(history, userMsg))
	if err != nil {
		o.rollback(ctx, userID)
		return "", err
	}
	if err := o.repo.Append(ctx, userID, domain.Message{Role: domain.RoleAssistant, Content: reply}); err != nil {
		o.rollback(ctx, userID)
		return "", err
	}
	o.archive(userID, pending, reply, name)
	return reply, nil
}

// complete reads the enablement map once, shuffles the enabled
// candidates and walks them until one produces an answer. Individual
// provider errors are logged and absorbed.
func (o *Orchestrator) complete(ctx context.Context, userID string, history domain.Conversation) (string, string, error) {
	enabled, err := o.repo.Providers(ctx, userID)
	if err != nil {
		return "", "", err
	}

	var candidates []domain.Provider
	for _, p := range o.registry.All() {
		if enabled[p.Name()] {
			candidates = append(candidates, p)
		}
	}
	o.shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	for _, p := range candidates {
		attemptCtx, cancel := context.WithTimeout(ctx, o.timeout)
		reply, err := p.Complete(attemptCtx, history)
		cancel()
		if err != nil {
			log.Printf("chat: provider %s failed for user %s: %v", p.Name(), userID, err)
			continue
		}
		return reply, p.Name(), nil
	}
	return "", "", domain.ErrAllProvidersFailed
}

func (o *Orchestrator) archive(userID, prompt, reply, providerName string) {
	if o.publisher == nil {
		return
	}
	event := TurnEvent{
		ID:        uuid.NewString(),
		UserID:    userID,
		Prompt:    prompt,
		Reply:     reply,
		Provider:  providerName,
		CreatedAt: time.Now().UTC(),
	}
	if err := o.publisher.Publish(event); err != nil {
		log.Printf("chat: archive publish failed for user %s: %v", userID, err)
	}
}
