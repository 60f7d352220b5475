package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/collision"
)

// AlertSink publishes alerts keyed by subject id.
type AlertSink struct {
	pub *Publisher
}

func NewAlertSink(pub *Publisher) *AlertSink {
	return &AlertSink{pub: pub}
}

func (s *AlertSink) Emit(ctx context.Context, ev collision.AlertEvent) error {
	return s.pub.PublishJSON(ctx, ev.SubjectID, ev)
}

// TickRenderer publishes every tick output keyed by subject id.
type TickRenderer struct {
	pub *Publisher
}

func NewTickRenderer(pub *Publisher) *TickRenderer {
	return &TickRenderer{pub: pub}
}

func (r *TickRenderer) Render(ctx context.Context, out collision.TickOutput) error {
	return r.pub.PublishJSON(ctx, out.SubjectID, out)
}

// DecodeTickOutput parses a record written by TickRenderer.
func DecodeTickOutput(m kafka.Message) (collision.TickOutput, error) {
	var out collision.TickOutput
	if err := json.Unmarshal(m.Value, &out); err != nil {
		return out, fmt.Errorf("decode tick output at offset %d: %w", m.Offset, err)
	}
	return out, nil
}
