package bus

import (
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSBus is the production channel implementation.
type NATSBus struct {
	conn   *nats.Conn
	config NATSConfig
}

// NATSConfig holds connection settings for the broker.
type NATSConfig struct {
	Config

	// URL of the NATS server, e.g. "nats://localhost:4222".
	URL string

	// Name identifies this client to the server.
	Name string

	// User and Password for basic auth; Password typically comes from
	// the OS keyring (internal/secrets).
	User     string
	Password string

	ReconnectWait time.Duration

	// MaxReconnects; -1 means unlimited.
	MaxReconnects int

	ConnectTimeout time.Duration
}

func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		Config:         DefaultConfig(),
		URL:            nats.DefaultURL,
		ReconnectWait:  2 * time.Second,
		MaxReconnects:  -1,
		ConnectTimeout: 5 * time.Second,
	}
}

func NewNATSBus(cfg NATSConfig) (*NATSBus, error) {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}
	if cfg.URL == "" {
		cfg.URL = nats.DefaultURL
	}

	opts := []nats.Option{
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.Timeout(cfg.ConnectTimeout),
	}
	if cfg.Name != "" {
		opts = append(opts, nats.Name(cfg.Name))
	}
	if cfg.User != "" {
		opts = append(opts, nats.UserInfo(cfg.User, cfg.Password))
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &NATSBus{conn: conn, config: cfg}, nil
}

func (b *NATSBus) Publish(subject string, data []byte) error {
	if err := ValidateSubject(subject); err != nil {
		return err
	}
	if b.conn.IsClosed() {
		return ErrClosed
	}
	if err := b.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("nats publish: %w", err)
	}
	return nil
}

func (b *NATSBus) Subscribe(subject string) (Subscription, error) {
	return b.subscribe(subject, "")
}

func (b *NATSBus) QueueSubscribe(subject, queue string) (Subscription, error) {
	if queue == "" {
		return nil, ErrInvalidSubject
	}
	return b.subscribe(subject, queue)
}

func (b *NATSBus) subscribe(subject, queue string) (Subscription, error) {
	if err := ValidateSubject(subject); err != nil {
		return nil, err
	}
	if b.conn.IsClosed() {
		return nil, ErrClosed
	}

	ns := &natsSub{ch: make(chan *Message, b.config.BufferSize)}
	handler := func(m *nats.Msg) {
		ns.deliver(&Message{Subject: m.Subject, Data: m.Data})
	}

	var (
		sub *nats.Subscription
		err error
	)
	if queue == "" {
		sub, err = b.conn.Subscribe(subject, handler)
	} else {
		sub, err = b.conn.QueueSubscribe(subject, queue, handler)
	}
	if err != nil {
		return nil, fmt.Errorf("nats subscribe %q: %w", subject, err)
	}
	ns.sub = sub
	return ns, nil
}

func (b *NATSBus) Close() error {
	if !b.conn.IsClosed() {
		// let buffered publishes flush before closing
		_ = b.conn.Drain()
	}
	return nil
}

type natsSub struct {
	sub *nats.Subscription

	mu     sync.Mutex
	closed bool
	ch     chan *Message
}

// deliver hands a message to the subscriber channel. It shares a mutex
// with closeChan: nats.Subscription.Unsubscribe does not wait for
// in-flight handler callbacks, so without the lock a late message
// could land on a just-closed channel.
func (s *natsSub) deliver(msg *Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- msg:
	default:
		// buffer full, drop
	}
}

func (s *natsSub) closeChan() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

func (s *natsSub) Messages() <-chan *Message {
	return s.ch
}

func (s *natsSub) Unsubscribe() error {
	err := s.sub.Unsubscribe()
	s.closeChan()
	return err
}
