package domain

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one turn entry in a conversation log.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// IsUser checks if the message is from a user
func (m Message) IsUser() bool {
	return m.Role == RoleUser
}

// IsAssistant checks if the message is from the model
func (m Message) IsAssistant() bool {
	return m.Role == RoleAssistant
}

// Conversation is the ordered per-user message log. Excluding system
// messages it alternates user/assistant turns and never rests on a
// trailing user message after a completed turn.
type Conversation []Message

// HasSystem reports whether a system message is present anywhere in the log.
func (c Conversation) HasSystem() bool {
	for _, m := range c {
		if m.Role == RoleSystem {
			return true
		}
	}
	return false
}

// Last returns the tail message, ok=false on an empty log.
func (c Conversation) Last() (Message, bool) {
	if len(c) == 0 {
		return Message{}, false
	}
	return c[len(c)-1], true
}

// WithoutLastAssistant returns the log minus a trailing assistant
// message. Used by the regenerate path so providers see the prior user
// turn without the answer being replaced.
func (c Conversation) WithoutLastAssistant() Conversation {
	if last, ok := c.Last(); ok && last.Role == RoleAssistant {
		return c[:len(c)-1]
	}
	return c
}
