package queue

import (
	"github.com/google/uuid"
)

// Message is one unit on the archive wire. The id rides along as the
// rocketmq message key, so a turn stays traceable from publish to the
// archive row.
type Message struct {
	ID      string
	Payload []byte
}

// NewMessage wraps a payload with a fresh message id.
func NewMessage(payload []byte) Message {
	return Message{
		ID:      uuid.NewString(),
		Payload: payload,
	}
}
