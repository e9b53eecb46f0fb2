// Package bus is the message channel between the engine, the model
// service and the fetcher: fire-and-forget publish, at-least-once
// subscribe over named topics. No ordering is guaranteed and publish
// returns no delivery confirmation, so every consumer must be
// idempotent.
package bus

import "errors"

var (
	ErrClosed         = errors.New("bus closed")
	ErrInvalidSubject = errors.New("invalid subject")
)

// Message is one delivered payload.
type Message struct {
	Subject string
	Data    []byte
}

// Bus is the channel abstraction the pipeline holds. Concrete broker
// handles never leak past this interface.
type Bus interface {
	// Publish sends data to all subscribers of a subject without
	// blocking on delivery.
	Publish(subject string, data []byte) error

	// Subscribe delivers every message on the subject to this
	// subscriber.
	Subscribe(subject string) (Subscription, error)

	// QueueSubscribe load-balances messages across subscribers that
	// share a queue name. Horizontal consumer scaling uses this.
	QueueSubscribe(subject, queue string) (Subscription, error)

	Close() error
}

// Subscription is an active subscription; messages arrive on a
// channel that closes when the subscription ends.
type Subscription interface {
	Messages() <-chan *Message
	Unsubscribe() error
}

// Config holds settings shared by implementations.
type Config struct {
	// BufferSize for subscription channels. Default 256.
	BufferSize int
}

func DefaultConfig() Config {
	return Config{BufferSize: 256}
}

func ValidateSubject(subject string) error {
	if subject == "" {
		return ErrInvalidSubject
	}
	return nil
}
