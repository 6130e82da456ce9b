package chat

import (
	"context"
	"sync"

	"gpt-relay/internal/domain"
)

// Ping probes every registered provider with a trivial one-message
// history and reports which of them currently answer. Probes run
// concurrently, each under the usual per-attempt timeout.
func (o *Orchestrator) Ping(ctx context.Context) map[string]bool {
	probe := domain.Conversation{{Role: domain.RoleUser, Content: "Hi"}}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		status = make(map[string]bool, len(o.registry.All()))
	)
	for _, p := range o.registry.All() {
		wg.Add(1)
		go func(p domain.Provider) {
			defer wg.Done()
			attemptCtx, cancel := context.WithTimeout(ctx, o.timeout)
			defer cancel()
			_, err := p.Complete(attemptCtx, probe)
			mu.Lock()
			status[p.Name()] = err == nil
			mu.Unlock()
		}(p)
	}
	wg.Wait()
	return status
}
