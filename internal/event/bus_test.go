package event

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_FIFO(t *testing.T) {
	bus := NewBus()
	for i := 0; i < 3; i++ {
		require.NoError(t, bus.Send(StrategyUpdateEvent{StrategyID: string(rune('a' + i))}))
	}
	assert.Equal(t, 3, bus.Len())

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		ev, err := bus.Receive(ctx)
		require.NoError(t, err)
		assert.Equal(t, string(rune('a'+i)), ev.(StrategyUpdateEvent).StrategyID)
	}
	assert.Equal(t, 0, bus.Len())
}

func TestBus_SendNeverBlocks(t *testing.T) {
	bus := NewBus()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100000; i++ {
			_ = bus.Send(ActionEvent{Action: ActionCancelAllOrders})
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Send blocked without a consumer")
	}
	assert.Equal(t, 100000, bus.Len())
}

func TestBus_ReceiveWaitsForEvent(t *testing.T) {
	bus := NewBus()
	got := make(chan Event, 1)
	go func() {
		ev, err := bus.Receive(context.Background())
		if err == nil {
			got <- ev
		}
	}()

	select {
	case <-got:
		t.Fatal("Receive returned before any event was sent")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, bus.Send(SignalEvent{}))
	select {
	case ev := <-got:
		assert.Equal(t, KindSignal, ev.Kind())
	case <-time.After(time.Second):
		t.Fatal("Receive did not wake up")
	}
}

func TestBus_CloseDrainsThenFails(t *testing.T) {
	bus := NewBus()
	require.NoError(t, bus.Send(SignalEvent{}))
	bus.Close()
	bus.Close()

	assert.ErrorIs(t, bus.Send(SignalEvent{}), ErrBusClosed)

	ev, err := bus.Receive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, KindSignal, ev.Kind())

	_, err = bus.Receive(context.Background())
	assert.ErrorIs(t, err, ErrBusClosed)
}

func TestBus_CloseWakesReceiver(t *testing.T) {
	bus := NewBus()
	errCh := make(chan error, 1)
	go func() {
		_, err := bus.Receive(context.Background())
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	bus.Close()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrBusClosed)
	case <-time.After(time.Second):
		t.Fatal("receiver not woken by Close")
	}
}

func TestBus_ReceiveContextCancel(t *testing.T) {
	bus := NewBus()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := bus.Receive(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBus_ConcurrentProducers(t *testing.T) {
	bus := NewBus()
	const producers, perProducer = 8, 500

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				_ = bus.Send(SignalEvent{})
			}
		}()
	}

	received := 0
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go func() {
		wg.Wait()
		bus.Close()
	}()
	for {
		_, err := bus.Receive(ctx)
		if err != nil {
			assert.ErrorIs(t, err, ErrBusClosed)
			break
		}
		received++
	}
	assert.Equal(t, producers*perProducer, received)
}
