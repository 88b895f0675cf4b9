package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/events"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

type mockChannel struct {
	publishFn func(ctx context.Context, exchange, key string, msg amqp.Publishing) error
}

func (m *mockChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	return m.publishFn(ctx, exchange, key, msg)
}

func newTestPublisher(ch amqpChannel, chErr error) (*Publisher, *test.Hook) {
	logger, hook := test.NewNullLogger()
	return &Publisher{
		channel: func() (amqpChannel, error) { return ch, chErr },
		logger:  logger,
	}, hook
}

func TestPublishUsesEventTypeAsRoutingKey(t *testing.T) {
	var gotExchange, gotKey string
	var gotMsg amqp.Publishing
	ch := &mockChannel{publishFn: func(_ context.Context, exchange, key string, msg amqp.Publishing) error {
		gotExchange, gotKey, gotMsg = exchange, key, msg
		return nil
	}}
	p, _ := newTestPublisher(ch, nil)

	e := events.New(events.TypeOrderPlaced, map[string]any{"orderNumber": 1001})
	if err := p.Publish(context.Background(), e); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if gotExchange != ExchangeEvents {
		t.Errorf("exchange: got %q, want %q", gotExchange, ExchangeEvents)
	}
	if gotKey != events.TypeOrderPlaced {
		t.Errorf("routing key: got %q, want %q", gotKey, events.TypeOrderPlaced)
	}
	if gotMsg.DeliveryMode != amqp.Persistent {
		t.Errorf("expected persistent delivery, got %d", gotMsg.DeliveryMode)
	}
	if gotMsg.ContentType != "application/json" {
		t.Errorf("content type: got %q", gotMsg.ContentType)
	}

	var body map[string]any
	if err := json.Unmarshal(gotMsg.Body, &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if body["type"] != events.TypeOrderPlaced {
		t.Errorf("body type: got %v", body["type"])
	}
}

func TestPublishLogsAndWrapsBrokerErrors(t *testing.T) {
	brokerErr := errors.New("channel closed")
	ch := &mockChannel{publishFn: func(context.Context, string, string, amqp.Publishing) error {
		return brokerErr
	}}
	p, hook := newTestPublisher(ch, nil)

	err := p.Publish(context.Background(), events.New(events.TypeInventoryLowStock, nil))
	if !errors.Is(err, brokerErr) {
		t.Fatalf("expected wrapped broker error, got %v", err)
	}
	entry := hook.LastEntry()
	if entry == nil || entry.Level != logrus.ErrorLevel {
		t.Fatalf("expected an error log entry, got %v", entry)
	}
	if entry.Data["routing_key"] != events.TypeInventoryLowStock {
		t.Errorf("routing_key field: got %v", entry.Data["routing_key"])
	}
}

func TestPublishFailsWithoutChannel(t *testing.T) {
	p, _ := newTestPublisher(nil, errors.New("dial failed"))
	if err := p.Publish(context.Background(), events.New(events.TypeOrderPlaced, nil)); err == nil {
		t.Fatal("expected error when no channel is available")
	}
}
