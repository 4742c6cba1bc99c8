// internal/app/system/events/events.go

// Package events announces dataset refreshes to downstream consumers over
// Kafka. With no brokers configured it degrades to a no-op.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/stratahabits/internal/domain/models"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// TypeRefreshed is the event type of a completed refresh.
const TypeRefreshed = "habits.refreshed"

// DefaultTopic is used when brokers are configured without a topic.
const DefaultTopic = "habits.refreshed"

// Refreshed is the payload published after every refresh attempt.
type Refreshed struct {
	Type       string                 `json:"type"`
	RunID      string                 `json:"run_id"`
	Status     string                 `json:"status"`
	Trigger    string                 `json:"trigger"`
	OccurredAt time.Time              `json:"occurred_at"`
	Records    int                    `json:"records"`
	Summary    *models.MetricsSummary `json:"summary,omitempty"`
	Error      string                 `json:"error,omitempty"`
}

// Publisher sends refresh events.
type Publisher interface {
	PublishRefreshed(ctx context.Context, ev Refreshed) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) PublishRefreshed(context.Context, Refreshed) error { return nil }
func (Nop) Close() error                                      { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes refresh events as JSON to a Kafka topic, keyed by run
// id.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	logger *zap.Logger
}

// Config selects the brokers and topic.
type Config struct {
	Brokers []string
	Topic   string
}

// ParseBrokers splits a comma separated broker list, dropping blanks.
func ParseBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// New returns a KafkaPublisher when brokers are configured, otherwise Nop.
func New(cfg Config, logger *zap.Logger) Publisher {
	if len(cfg.Brokers) == 0 {
		logger.Info("event publishing disabled (no kafka brokers configured)")
		return Nop{}
	}
	topic := cfg.Topic
	if topic == "" {
		topic = DefaultTopic
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  topic,
		RequiredAcks:           kafka.RequireOne,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
	logger.Info("event publishing enabled",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", topic))
	return newKafkaPublisher(w, topic, logger)
}

func newKafkaPublisher(w messageWriter, topic string, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: w, topic: topic, logger: logger}
}

func (p *KafkaPublisher) PublishRefreshed(ctx context.Context, ev Refreshed) error {
	if ev.RunID == "" {
		return errors.New("refresh event requires a run id")
	}
	if ev.Type == "" {
		ev.Type = TypeRefreshed
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode refresh event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(ev.RunID),
		Value: body,
		Time:  ev.OccurredAt,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(ev.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", p.topic, err)
	}
	p.logger.Debug("refresh event published", zap.String("run_id", ev.RunID), zap.String("topic", p.topic))
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
