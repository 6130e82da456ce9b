package provider

import (
	"fmt"
	"net/http"

	"gpt-relay/internal/domain"
)

// Registry is the immutable, process-wide set of configured providers.
// It is built once at startup and injected into the orchestrator, so
// tests can substitute fakes and nothing reaches for ambient state.
type Registry struct {
	ordered []domain.Provider
	byName  map[string]domain.Provider
}

func NewRegistry(providers ...domain.Provider) (*Registry, error) {
	r := &Registry{byName: make(map[string]domain.Provider, len(providers))}
	for _, p := range providers {
		if _, dup := r.byName[p.Name()]; dup {
			return nil, fmt.Errorf("duplicate provider %q", p.Name())
		}
		r.byName[p.Name()] = p
		r.ordered = append(r.ordered, p)
	}
	return r, nil
}

// Names returns provider names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.ordered))
	for i, p := range r.ordered {
		names[i] = p.Name()
	}
	return names
}

// Get looks a provider up by its stable name.
func (r *Registry) Get(name string) (domain.Provider, bool) {
	p, ok := r.byName[name]
	return p, ok
}

// All returns the providers in registration order. Callers must not
// modify the returned slice.
func (r *Registry) All() []domain.Provider {
	return r.ordered
}

// Defaults builds the full adapter set against one shared HTTP client.
func Defaults(client *http.Client) (*Registry, error) {
	return NewRegistry(
		NewDeepInfra(client),
		NewFakeOpen(client),
		NewFreeGPT4(client),
		NewFstha(client),
		NewOnlineGPT(client),
		NewRemix(client),
		NewUncensored(client),
	)
}
