package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaMailer publishes mail messages to a topic consumed by the external
// delivery service. Publishing is fire-and-forget from the caller's point of
// view: account mutations never roll back on a failed send.
type KafkaMailer struct {
	Writer *kafka.Writer
}

func NewKafkaMailer(brokers []string, topic string) *KafkaMailer {
	return &KafkaMailer{
		Writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			WriteTimeout: 5 * time.Second,
		},
	}
}

func (m *KafkaMailer) Send(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("mail: marshal message: %w", err)
	}
	return m.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.To),
		Value: data,
	})
}

func (m *KafkaMailer) Close() error { return m.Writer.Close() }
