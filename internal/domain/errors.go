package domain

import "errors"

var (
	// ErrNoAccount means the user was never onboarded. Terminal, the
	// front end has to create the account first.
	ErrNoAccount = errors.New("account does not exist")

	// ErrAllProvidersFailed means every enabled provider failed (or none
	// was enabled). Transient, safe to retry; the log was rolled back.
	ErrAllProvidersFailed = errors.New("all providers failed")

	// ErrNothingToRegenerate means no pending prompt was recorded for
	// the user yet.
	ErrNothingToRegenerate = errors.New("nothing to regenerate")

	// ErrNotAssistantTail is returned by ReplaceLast when the log is
	// empty or does not end on an assistant message.
	ErrNotAssistantTail = errors.New("log does not end on an assistant message")
)
