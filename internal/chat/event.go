package chat

import "time"

// TurnEvent describes one committed turn for the async archive pipeline.
type TurnEvent struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Prompt    string    `json:"prompt"`
	Reply     string    `json:"reply"`
	Provider  string    `json:"provider"`
	CreatedAt time.Time `json:"created_at"`
}

// TurnPublisher hands committed turns to the archive queue. A failed
// publish is logged and swallowed; it never fails the turn itself.
type TurnPublisher interface {
	Publish(event TurnEvent) error
}
