package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// amqpChannel is the part of *amqp.Channel the notifier publishes through.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
}

type amqpSession struct {
	ch    amqpChannel
	close func() error
}

// AMQPNotifier publishes each change as JSON to a durable topic exchange,
// routed by kind ("user.created", ...). A closed connection or channel is
// re-dialed on the next publish.
type AMQPNotifier struct {
	mu       sync.Mutex
	dial     func() (*amqpSession, error)
	sess     *amqpSession
	exchange string
}

func NewAMQPNotifier(url, exchange string) (*AMQPNotifier, error) {
	if exchange == "" {
		exchange = "usersapi.events"
	}

	n := newAMQPNotifier(exchange, func() (*amqpSession, error) {
		return dialAMQP(url, exchange)
	})

	// fail fast on a bad url or exchange at startup
	sess, err := n.dial()
	if err != nil {
		return nil, err
	}
	n.sess = sess

	return n, nil
}

func newAMQPNotifier(exchange string, dial func() (*amqpSession, error)) *AMQPNotifier {
	return &AMQPNotifier{dial: dial, exchange: exchange}
}

func dialAMQP(url, exchange string) (*amqpSession, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &amqpSession{
		ch: ch,
		close: func() error {
			_ = ch.Close()
			return conn.Close()
		},
	}, nil
}

func (n *AMQPNotifier) NotifyUserChanged(ctx context.Context, change Change) error {
	b, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("marshal change: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    change.ID,
		Timestamp:    change.OccurredAt,
		Body:         b,
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	err = n.publish(ctx, string(change.Kind), msg)
	if errors.Is(err, amqp.ErrClosed) {
		// the broker went away between IsClosed and publish; one retry on a fresh session
		n.drop()
		err = n.publish(ctx, string(change.Kind), msg)
	}
	if err != nil {
		return fmt.Errorf("publish %s: %w", change.Kind, err)
	}

	return nil
}

// publish runs with n.mu held.
func (n *AMQPNotifier) publish(ctx context.Context, key string, msg amqp.Publishing) error {
	if n.sess != nil && n.sess.ch.IsClosed() {
		n.drop()
	}

	if n.sess == nil {
		sess, err := n.dial()
		if err != nil {
			return err
		}
		n.sess = sess
	}

	return n.sess.ch.PublishWithContext(ctx, n.exchange, key, false, false, msg)
}

func (n *AMQPNotifier) drop() {
	if n.sess == nil {
		return
	}
	_ = n.sess.close()
	n.sess = nil
}

func (n *AMQPNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.sess == nil {
		return nil
	}

	err := n.sess.close()
	n.sess = nil
	return err
}
