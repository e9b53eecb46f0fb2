package bus

import (
	"sync"
	"sync/atomic"
)

// MemoryBus delivers messages over in-process channels. It backs the
// single-binary development setup and the tests; semantics mirror the
// NATS implementation, including dropping when a subscriber's buffer
// is full.
type MemoryBus struct {
	config Config

	mu          sync.RWMutex
	subs        map[string][]*memorySub
	queueGroups map[string]map[string][]*memorySub // subject -> queue -> subs
	closed      atomic.Bool
}

type memorySub struct {
	subject string
	queue   string
	ch      chan *Message
	closed  atomic.Bool
	bus     *MemoryBus
}

func NewMemoryBus(cfg Config) *MemoryBus {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}
	return &MemoryBus{
		config:      cfg,
		subs:        make(map[string][]*memorySub),
		queueGroups: make(map[string]map[string][]*memorySub),
	}
}

func (b *MemoryBus) Publish(subject string, data []byte) error {
	if err := ValidateSubject(subject); err != nil {
		return err
	}
	if b.closed.Load() {
		return ErrClosed
	}

	msg := &Message{Subject: subject, Data: data}

	// Delivery happens under the read lock. Unsubscribe and Close take
	// the write lock before closing a channel, so a send can never race
	// a close.
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs[subject] {
		sub.deliver(msg)
	}
	for _, qsubs := range b.queueGroups[subject] {
		// one receiver per queue group
		for _, sub := range qsubs {
			if sub.deliver(msg) {
				break
			}
		}
	}
	return nil
}

func (s *memorySub) deliver(msg *Message) bool {
	if s.closed.Load() {
		return false
	}
	select {
	case s.ch <- msg:
		return true
	default:
		// buffer full, drop
		return false
	}
}

func (b *MemoryBus) Subscribe(subject string) (Subscription, error) {
	return b.subscribe(subject, "")
}

func (b *MemoryBus) QueueSubscribe(subject, queue string) (Subscription, error) {
	if queue == "" {
		return nil, ErrInvalidSubject
	}
	return b.subscribe(subject, queue)
}

func (b *MemoryBus) subscribe(subject, queue string) (Subscription, error) {
	if err := ValidateSubject(subject); err != nil {
		return nil, err
	}
	if b.closed.Load() {
		return nil, ErrClosed
	}

	sub := &memorySub{
		subject: subject,
		queue:   queue,
		ch:      make(chan *Message, b.config.BufferSize),
		bus:     b,
	}

	b.mu.Lock()
	if queue == "" {
		b.subs[subject] = append(b.subs[subject], sub)
	} else {
		if b.queueGroups[subject] == nil {
			b.queueGroups[subject] = make(map[string][]*memorySub)
		}
		b.queueGroups[subject][queue] = append(b.queueGroups[subject][queue], sub)
	}
	b.mu.Unlock()

	return sub, nil
}

func (b *MemoryBus) Close() error {
	if b.closed.Swap(true) {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, subs := range b.subs {
		for _, sub := range subs {
			sub.closed.Store(true)
			close(sub.ch)
		}
	}
	for _, queues := range b.queueGroups {
		for _, subs := range queues {
			for _, sub := range subs {
				sub.closed.Store(true)
				close(sub.ch)
			}
		}
	}
	b.subs = nil
	b.queueGroups = nil
	return nil
}

func (s *memorySub) Messages() <-chan *Message {
	return s.ch
}

func (s *memorySub) Unsubscribe() error {
	if s.closed.Swap(true) {
		return nil
	}

	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()

	if s.queue == "" {
		s.bus.subs[s.subject] = removeSub(s.bus.subs[s.subject], s)
	} else if s.bus.queueGroups[s.subject] != nil {
		s.bus.queueGroups[s.subject][s.queue] = removeSub(s.bus.queueGroups[s.subject][s.queue], s)
	}

	close(s.ch)
	return nil
}

func removeSub(subs []*memorySub, target *memorySub) []*memorySub {
	for i, sub := range subs {
		if sub == target {
			return append(subs[:i], subs[i+1:]...)
		}
	}
	return subs
}
