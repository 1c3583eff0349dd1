package eventbus

import (
	"context"
	"testing"
	"time"
)

func TestTypedBusPublishSubscribe(t *testing.T) {
	bus := NewTyped[string]()
	ch := bus.Subscribe()
	bus.Publish("hello")
	v := <-ch
	if v != "hello" {
		t.Fatalf("expected hello got %v", v)
	}
	bus.Unsubscribe(ch)
}

func TestTypedBusClose(t *testing.T) {
	bus := NewTyped[int]()
	ch1 := bus.Subscribe()
	ch2 := bus.Subscribe()
	bus.Close()
	if _, ok := <-ch1; ok {
		t.Fatalf("expected ch1 closed")
	}
	if _, ok := <-ch2; ok {
		t.Fatalf("expected ch2 closed")
	}
}

func TestTypedBusUnsubscribeAfterClose(t *testing.T) {
	bus := NewTyped[float64]()
	ch := bus.Subscribe()
	bus.Close()
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("panic on Unsubscribe after Close: %v", r)
		}
	}()
	bus.Unsubscribe(ch)
}

func TestTypedBusDropsWhenFull(t *testing.T) {
	bus := NewTypedWithBuffer[int](1)
	ch := bus.Subscribe()
	bus.Publish(1)
	bus.Publish(2)
	if got := <-ch; got != 1 {
		t.Fatalf("expected first event, got %d", got)
	}
	if bus.Dropped() != 1 {
		t.Fatalf("expected one dropped event, got %d", bus.Dropped())
	}
}

func TestTypedBusConsume(t *testing.T) {
	bus := NewTyped[string]()
	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan string, 1)
	done := bus.Consume(ctx, func(s string) { got <- s })
	bus.Publish("add")
	select {
	case v := <-got:
		if v != "add" {
			t.Fatalf("unexpected event %q", v)
		}
	case <-time.After(time.Second):
		t.Fatalf("event not consumed")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("consumer did not stop")
	}
}

func TestTypedBusConsumeStopsOnClose(t *testing.T) {
	bus := NewTyped[int]()
	done := bus.Consume(context.Background(), func(int) {})
	bus.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("consumer did not stop after Close")
	}
}
