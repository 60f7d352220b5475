package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/model"
)

// Writer abstracts kafka.Writer for testing.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewWriter returns a writer that hashes keys to partitions so updates for
// one vessel stay ordered.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
}

// Publisher writes JSON records to one topic.
type Publisher struct {
	w Writer
}

func NewPublisher(w Writer) *Publisher {
	return &Publisher{w: w}
}

func (p *Publisher) PublishJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return p.w.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: b})
}

// PublishVessels writes one record per update, keyed by vessel id.
func (p *Publisher) PublishVessels(ctx context.Context, updates []model.VesselUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	records := make([]kafka.Message, 0, len(updates))
	for _, u := range updates {
		b, err := json.Marshal(u)
		if err != nil {
			return fmt.Errorf("marshal vessel %s: %w", u.ID, err)
		}
		records = append(records, kafka.Message{Key: []byte(u.ID), Value: b})
	}
	return p.w.WriteMessages(ctx, records...)
}

func (p *Publisher) Close() error {
	return p.w.Close()
}
