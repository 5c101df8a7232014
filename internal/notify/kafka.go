package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafka.Writer the channel needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type ownerEvent struct {
	Type    string    `json:"type"`
	Title   string    `json:"title"`
	Content string    `json:"content"`
	SentAt  time.Time `json:"sent_at"`
}

// KafkaChannel publishes notifications to a topic for downstream consumers.
type KafkaChannel struct {
	writer MessageWriter
	now    func() time.Time
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
}

func NewKafkaChannel(writer MessageWriter) *KafkaChannel {
	return &KafkaChannel{writer: writer, now: time.Now}
}

func (c *KafkaChannel) Name() string { return "kafka" }

func (c *KafkaChannel) Notify(ctx context.Context, n Notification) error {
	data, err := json.Marshal(ownerEvent{
		Type:    "owner_notification",
		Title:   n.Title,
		Content: n.Content,
		SentAt:  c.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal owner event: %w", err)
	}

	if err := c.writer.WriteMessages(ctx, kafka.Message{Key: []byte("owner"), Value: data}); err != nil {
		return fmt.Errorf("publish owner event: %w", err)
	}
	return nil
}

func (c *KafkaChannel) Close() error {
	return c.writer.Close()
}
