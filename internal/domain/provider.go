package domain

import "context"

// Provider is one interchangeable text-completion backend. Adapters
// must not mutate the history, must respect ctx deadlines and must
// collapse every expected failure mode (non-2xx, malformed payload,
// timeout, empty completion) into the returned error. The orchestrator
// treats all providers as equally untrusted, so no failure
// classification crosses this boundary.
type Provider interface {
	Name() string
	Complete(ctx context.Context, history Conversation) (string, error)
}
