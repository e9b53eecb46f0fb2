package bus

import (
	"errors"
	"testing"
	"time"
)

func recvOne(t *testing.T, sub Subscription) *Message {
	t.Helper()
	select {
	case msg := <-sub.Messages():
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func TestMemoryBusPublishSubscribe(t *testing.T) {
	b := NewMemoryBus(DefaultConfig())
	defer b.Close()

	sub, err := b.Subscribe("job.process")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if err := b.Publish("job.process", []byte("hello")); err != nil {
		t.Fatalf("publish: %v", err)
	}

	msg := recvOne(t, sub)
	if msg.Subject != "job.process" || string(msg.Data) != "hello" {
		t.Fatalf("got %+v", msg)
	}
}

func TestMemoryBusFanOut(t *testing.T) {
	b := NewMemoryBus(DefaultConfig())
	defer b.Close()

	sub1, _ := b.Subscribe("topic")
	sub2, _ := b.Subscribe("topic")

	if err := b.Publish("topic", []byte("x")); err != nil {
		t.Fatal(err)
	}

	recvOne(t, sub1)
	recvOne(t, sub2)
}

func TestMemoryBusQueueGroupSingleDelivery(t *testing.T) {
	b := NewMemoryBus(DefaultConfig())
	defer b.Close()

	sub1, _ := b.QueueSubscribe("topic", "workers")
	sub2, _ := b.QueueSubscribe("topic", "workers")

	if err := b.Publish("topic", []byte("x")); err != nil {
		t.Fatal(err)
	}

	// exactly one member of the group sees the message
	total := len(sub1.(*memorySub).ch) + len(sub2.(*memorySub).ch)
	if total != 1 {
		t.Fatalf("queue group delivered %d copies, want 1", total)
	}
}

func TestMemoryBusQueueSubscribeRequiresQueue(t *testing.T) {
	b := NewMemoryBus(DefaultConfig())
	defer b.Close()

	if _, err := b.QueueSubscribe("topic", ""); !errors.Is(err, ErrInvalidSubject) {
		t.Fatalf("empty queue: %v", err)
	}
}

func TestMemoryBusDropsWhenBufferFull(t *testing.T) {
	b := NewMemoryBus(Config{BufferSize: 1})
	defer b.Close()

	sub, _ := b.Subscribe("topic")

	// second publish must not block, only drop
	if err := b.Publish("topic", []byte("1")); err != nil {
		t.Fatal(err)
	}
	if err := b.Publish("topic", []byte("2")); err != nil {
		t.Fatal(err)
	}

	msg := recvOne(t, sub)
	if string(msg.Data) != "1" {
		t.Fatalf("got %q", msg.Data)
	}
	select {
	case extra := <-sub.Messages():
		t.Fatalf("unexpected extra message %q", extra.Data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryBusRejectsEmptySubject(t *testing.T) {
	b := NewMemoryBus(DefaultConfig())
	defer b.Close()

	if err := b.Publish("", nil); !errors.Is(err, ErrInvalidSubject) {
		t.Fatalf("publish empty subject: %v", err)
	}
	if _, err := b.Subscribe(""); !errors.Is(err, ErrInvalidSubject) {
		t.Fatalf("subscribe empty subject: %v", err)
	}
}

func TestMemoryBusClose(t *testing.T) {
	b := NewMemoryBus(DefaultConfig())
	sub, _ := b.Subscribe("topic")

	if err := b.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, ok := <-sub.Messages(); ok {
		t.Fatal("channel should be closed")
	}
	if err := b.Publish("topic", nil); !errors.Is(err, ErrClosed) {
		t.Fatalf("publish after close: %v", err)
	}
	if _, err := b.Subscribe("topic"); !errors.Is(err, ErrClosed) {
		t.Fatalf("subscribe after close: %v", err)
	}
	// closing twice is fine
	if err := b.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestMemoryBusConcurrentPublishUnsubscribe(t *testing.T) {
	b := NewMemoryBus(Config{BufferSize: 1})
	defer b.Close()

	// a publish racing an unsubscribe must never send on the closed
	// channel and panic
	for i := 0; i < 2000; i++ {
		sub, err := b.Subscribe("topic")
		if err != nil {
			t.Fatal(err)
		}
		done := make(chan struct{})
		go func() {
			defer close(done)
			_ = b.Publish("topic", []byte("x"))
		}()
		if err := sub.Unsubscribe(); err != nil {
			t.Fatal(err)
		}
		<-done
	}
}

func TestMemoryBusConcurrentPublishClose(t *testing.T) {
	b := NewMemoryBus(Config{BufferSize: 1})
	if _, err := b.Subscribe("topic"); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			if err := b.Publish("topic", []byte("x")); err != nil {
				return // bus closed under us, expected
			}
		}
	}()
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
	<-done
}

func TestMemoryBusUnsubscribeStopsDelivery(t *testing.T) {
	b := NewMemoryBus(DefaultConfig())
	defer b.Close()

	sub, _ := b.Subscribe("topic")
	if err := sub.Unsubscribe(); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	if err := b.Publish("topic", []byte("x")); err != nil {
		t.Fatalf("publish after unsubscribe: %v", err)
	}
	if _, ok := <-sub.Messages(); ok {
		t.Fatal("unsubscribed channel should be closed")
	}
}
