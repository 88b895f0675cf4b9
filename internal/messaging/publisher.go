package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/events"
	"github.com/sirupsen/logrus"
)

const publishTimeout = 10 * time.Second

// amqpChannel is the subset of *amqp.Channel used for publishing.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// ChannelSource hands out a usable channel. Satisfied by *Connection.
type ChannelSource interface {
	Channel() (*amqp.Channel, error)
}

// Publisher sends domain events to the events exchange as persistent JSON
// messages. It implements events.Publisher.
type Publisher struct {
	channel func() (amqpChannel, error)
	logger  logrus.FieldLogger
}

// NewPublisher creates a Publisher on top of a broker connection.
func NewPublisher(src ChannelSource, logger logrus.FieldLogger) *Publisher {
	return &Publisher{
		channel: func() (amqpChannel, error) {
			ch, err := src.Channel()
			if err != nil {
				return nil, err
			}
			return ch, nil
		},
		logger: logger,
	}
}

// Publish implements events.Publisher.
func (p *Publisher) Publish(ctx context.Context, e events.Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ch, err := p.channel()
	if err != nil {
		return fmt.Errorf("broker channel: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = ch.PublishWithContext(ctx,
		ExchangeEvents, // exchange
		e.Type,         // routing key
		false,          // mandatory
		false,          // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    e.OccurredAt,
			Type:         e.Type,
			Body:         body,
		},
	)
	if err != nil {
		p.logger.WithError(err).WithField("routing_key", e.Type).Error("publish event failed")
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}

	p.logger.WithFields(logrus.Fields{
		"routing_key":  e.Type,
		"message_size": len(body),
	}).Debug("event published")
	return nil
}
