package kafka

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/segmentio/kafka-go"

	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/logging"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/model"
)

// Reader abstracts kafka.Reader for testing.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Handler processes one message. Returning an error logs it; the message is
// committed either way so one bad record cannot stall the partition.
type Handler func(ctx context.Context, m kafka.Message) error

const retryDelay = time.Second

// NewReader returns a group reader that starts from the newest offset on
// first join.
func NewReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:         brokers,
		Topic:           topic,
		GroupID:         groupID,
		MinBytes:        1e3,
		MaxBytes:        10e6,
		MaxWait:         time.Second,
		ReadLagInterval: -1,
		StartOffset:     kafka.LastOffset,
	})
}

// Consume fetches messages until ctx is done. Fetch errors are retried after
// a short pause.
func Consume(ctx context.Context, r Reader, handle Handler, logger logging.Logger) error {
	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Error("kafka fetch failed", logging.Err(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(retryDelay):
			}
			continue
		}

		if err := handle(ctx, m); err != nil {
			logger.Warn("message rejected",
				logging.String("topic", m.Topic),
				logging.Int("partition", m.Partition),
				logging.Int64("offset", m.Offset),
				logging.Err(err),
			)
		}
		if err := r.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			logger.Error("kafka commit failed", logging.Err(err))
		}
	}
}

var quotedTimestamp = regexp.MustCompile(`"timestamp"\s*:\s*"(\d+)"`)

// CleanJSON strips a leading BOM or unicode space and unquotes a numeric
// timestamp, both of which show up in records from hand-rolled producers.
func CleanJSON(raw []byte) []byte {
	s := strings.TrimLeftFunc(string(raw), func(r rune) bool {
		return unicode.IsSpace(r) || r == '\ufeff'
	})
	s = quotedTimestamp.ReplaceAllString(s, `"timestamp":$1`)
	return []byte(s)
}

// DecodeVesselUpdate parses a vessel_updates record. A record without an id
// in the payload takes the message key.
func DecodeVesselUpdate(m kafka.Message) (model.VesselUpdate, error) {
	var u model.VesselUpdate
	if err := model.UnmarshalVesselUpdate(CleanJSON(m.Value), &u); err != nil {
		return u, fmt.Errorf("decode vessel update at offset %d: %w", m.Offset, err)
	}
	if u.ID == "" {
		u.ID = strings.TrimSpace(string(m.Key))
	}
	if u.ID == "" {
		return u, fmt.Errorf("vessel update at offset %d has no id", m.Offset)
	}
	return u, nil
}
