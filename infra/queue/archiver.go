package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"gpt-relay/infra/storage"
	"gpt-relay/internal/chat"
)

// sender is the publish half of Producer, split out so the archiver
// can be exercised without a broker.
type sender interface {
	Send(ctx context.Context, topic string, msg Message) error
}

// TurnArchiver publishes committed turns onto the archive topic. It
// satisfies the orchestrator's publisher contract.
type TurnArchiver struct {
	sender sender
	topic  string
}

func NewTurnArchiver(producer *Producer, topic string) *TurnArchiver {
	return &TurnArchiver{sender: producer, topic: topic}
}

func (a *TurnArchiver) Publish(event chat.TurnEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode turn event: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return a.sender.Send(ctx, a.topic, NewMessage(payload))
}

// turnRecord decodes one wire message into its archive row.
func turnRecord(msg Message) (*storage.Turn, error) {
	var event chat.TurnEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return nil, fmt.Errorf("decode turn event %s: %w", msg.ID, err)
	}
	return &storage.Turn{
		TurnID:    event.ID,
		UserID:    event.UserID,
		Prompt:    event.Prompt,
		Reply:     event.Reply,
		Provider:  event.Provider,
		CreatedAt: event.CreatedAt,
	}, nil
}

// StartArchiveConsumer subscribes the push consumer to the archive
// topic and writes each event into the turns table.
func StartArchiveConsumer(c *Consumer, topic string, repo *storage.TurnRepository) error {
	err := c.Subscribe(topic, func(_ context.Context, msg Message) error {
		turn, err := turnRecord(msg)
		if err != nil {
			// Poison messages are dropped, retrying cannot fix them.
			log.Printf("queue: skip undecodable turn event: %v", err)
			return nil
		}
		return repo.CreateTurn(turn)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	return c.Start()
}
