package messaging

import (
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// ExchangeEvents is the topic exchange every domain event is published to.
// Routing keys are event types, e.g. "order.placed".
const ExchangeEvents = "qahwa.events"

const maxDialAttempts = 5

// Connection owns one AMQP connection and channel and re-dials on demand.
type Connection struct {
	url    string
	logger logrus.FieldLogger

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
}

// Dial connects to the broker and declares the events exchange.
func Dial(url string, logger logrus.FieldLogger) (*Connection, error) {
	c := &Connection{url: url, logger: logger}
	if err := c.connect(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return c, nil
}

// connect must be called with c.mu held or before c is shared.
func (c *Connection) connect() error {
	var err error
	for i := 0; i < maxDialAttempts; i++ {
		if err = c.dialOnce(); err == nil {
			return nil
		}
		if i < maxDialAttempts-1 {
			wait := time.Duration(i+1) * 2 * time.Second
			c.logger.WithError(err).Warnf("broker unavailable, retrying in %s", wait)
			time.Sleep(wait)
		}
	}
	return fmt.Errorf("after %d attempts: %w", maxDialAttempts, err)
}

func (c *Connection) dialOnce() error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return err
	}
	err = ch.ExchangeDeclare(
		ExchangeEvents, // name
		"topic",        // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("declare exchange %s: %w", ExchangeEvents, err)
	}
	c.conn, c.channel = conn, ch
	return nil
}

// Channel returns a live channel, reconnecting when the connection dropped.
func (c *Connection) Channel() (*amqp.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || c.conn.IsClosed() || c.channel == nil || c.channel.IsClosed() {
		c.closeLocked()
		if err := c.connect(); err != nil {
			return nil, err
		}
	}
	return c.channel, nil
}

// Close closes the channel and the connection.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked()
}

func (c *Connection) closeLocked() error {
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		if err != nil && err != amqp.ErrClosed {
			return err
		}
	}
	return nil
}
