package queue

import (
	"context"
	"fmt"

	rocketmq "github.com/apache/rocketmq-client-go/v2"
	"github.com/apache/rocketmq-client-go/v2/consumer"
	"github.com/apache/rocketmq-client-go/v2/primitive"
)

// Consumer wraps a rocketmq push consumer behind the package's Message
// shape, so subscribers never see primitive types.
type Consumer struct {
	consumer rocketmq.PushConsumer
}

func NewConsumer(nameServers []string, group string, model consumer.MessageModel) (*Consumer, error) {
	c, err := rocketmq.NewPushConsumer(
		consumer.WithNsResolver(primitive.NewPassthroughResolver(nameServers)),
		consumer.WithGroupName(group),
		consumer.WithConsumerModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("create consumer: %w", err)
	}

	return &Consumer{consumer: c}, nil
}

// Subscribe registers handler for every message on topic. The id is
// the producer-side key when present, the broker id otherwise. A
// handler error requeues the batch for redelivery.
func (c *Consumer) Subscribe(topic string, handler func(context.Context, Message) error) error {
	deliver := func(ctx context.Context, msgs ...*primitive.MessageExt) (consumer.ConsumeResult, error) {
		for _, raw := range msgs {
			msg := Message{
				ID:      raw.GetKeys(),
				Payload: raw.Body,
			}
			if msg.ID == "" {
				msg.ID = raw.MsgId
			}
			if err := handler(ctx, msg); err != nil {
				return consumer.ConsumeRetryLater, err
			}
		}
		return consumer.ConsumeSuccess, nil
	}
	return c.consumer.Subscribe(topic, consumer.MessageSelector{}, deliver)
}

func (c *Consumer) Start() error {
	return c.consumer.Start()
}

func (c *Consumer) Stop() error {
	return c.consumer.Shutdown()
}
