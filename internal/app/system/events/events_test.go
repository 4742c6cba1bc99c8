package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/dalemusser/stratahabits/internal/domain/models"
	"github.com/google/go-cmp/cmp"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestNewWithoutBrokersIsNop(t *testing.T) {
	p := New(Config{}, zap.NewNop())
	if _, ok := p.(Nop); !ok {
		t.Fatalf("New() = %T, want Nop", p)
	}
	if err := p.PublishRefreshed(context.Background(), Refreshed{}); err != nil {
		t.Errorf("Nop publish error = %v", err)
	}
}

func TestPublishRefreshed(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w, "habits", zap.NewNop())

	summary := models.EmptySummary()
	err := p.PublishRefreshed(context.Background(), Refreshed{
		RunID:   "run-1",
		Status:  "success",
		Trigger: "schedule",
		Records: 3,
		Summary: &summary,
	})
	if err != nil {
		t.Fatalf("PublishRefreshed() error = %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("wrote %d messages, want 1", len(w.msgs))
	}

	msg := w.msgs[0]
	if string(msg.Key) != "run-1" {
		t.Errorf("key = %q", msg.Key)
	}
	var got Refreshed
	if err := json.Unmarshal(msg.Value, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Type != TypeRefreshed || got.OccurredAt.IsZero() {
		t.Errorf("defaults not applied: %+v", got)
	}
	if diff := cmp.Diff(&summary, got.Summary); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}

	if err := p.Close(); err != nil || !w.closed {
		t.Errorf("Close() err=%v closed=%v", err, w.closed)
	}
}

func TestPublishRefreshedErrors(t *testing.T) {
	p := newKafkaPublisher(&fakeWriter{}, "habits", zap.NewNop())
	if err := p.PublishRefreshed(context.Background(), Refreshed{}); err == nil {
		t.Error("expected error for missing run id")
	}

	boom := errors.New("broker down")
	p = newKafkaPublisher(&fakeWriter{err: boom}, "habits", zap.NewNop())
	if err := p.PublishRefreshed(context.Background(), Refreshed{RunID: "x"}); !errors.Is(err, boom) {
		t.Errorf("error = %v, want wrapped broker error", err)
	}
}

func TestParseBrokers(t *testing.T) {
	got := ParseBrokers(" a:9092, ,b:9092 ")
	if diff := cmp.Diff([]string{"a:9092", "b:9092"}, got); diff != "" {
		t.Errorf("ParseBrokers mismatch (-want +got):\n%s", diff)
	}
	if ParseBrokers("") != nil {
		t.Error("empty input should yield nil")
	}
}
