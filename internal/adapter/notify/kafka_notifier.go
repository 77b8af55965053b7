package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/inversoft/pos-checkout/internal/core/domain"
)

// KafkaNotifier publishes completed receipts to a topic consumed by the
// print/email side channels. Delivery is acknowledged by all replicas but
// callers treat failures as non-fatal.
type KafkaNotifier struct {
	writer *kafka.Writer
}

func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	return &KafkaNotifier{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			AllowAutoTopicCreation: true,
			RequiredAcks:           kafka.RequireAll,
		},
	}
}

func (n *KafkaNotifier) SaleCompleted(ctx context.Context, receipt domain.Receipt) error {
	value, err := json.Marshal(receipt)
	if err != nil {
		return fmt.Errorf("marshal receipt: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(receipt.SaleNumber),
		Value: value,
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish receipt: %w", err)
	}
	return nil
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
