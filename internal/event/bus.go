package event

import (
	"context"
	"errors"
	"sync"
)

var ErrBusClosed = errors.New("event bus closed")

// Bus 无界事件队列：多生产者、单消费者。
// Send 永不阻塞，Receive 在队列为空时挂起，直到有新事件、总线关闭且排空或 ctx 结束。
type Bus struct {
	mu     sync.Mutex
	queue  []Event
	closed bool
	// 有新事件时发出通知，容量1，避免重复唤醒堆积
	notify chan struct{}
	done   chan struct{}
	once   sync.Once
}

func NewBus() *Bus {
	return &Bus{
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Send 投递事件，仅在总线关闭后返回 ErrBusClosed
func (b *Bus) Send(ev Event) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrBusClosed
	}
	b.queue = append(b.queue, ev)
	b.mu.Unlock()

	b.wake()
	return nil
}

// Receive 取出最早的事件
func (b *Bus) Receive(ctx context.Context) (Event, error) {
	for {
		b.mu.Lock()
		if len(b.queue) > 0 {
			ev := b.queue[0]
			b.queue[0] = nil
			b.queue = b.queue[1:]
			if len(b.queue) == 0 {
				// 释放底层数组
				b.queue = nil
			}
			b.mu.Unlock()
			return ev, nil
		}
		if b.closed {
			b.mu.Unlock()
			return nil, ErrBusClosed
		}
		b.mu.Unlock()

		select {
		case <-b.notify:
		case <-b.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Close 关闭总线，已入队的事件仍可被 Receive 取出；可重复调用
func (b *Bus) Close() {
	b.once.Do(func() {
		b.mu.Lock()
		b.closed = true
		b.mu.Unlock()
		close(b.done)
	})
}

// Len 当前待处理事件数
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

func (b *Bus) wake() {
	select {
	case b.notify <- struct{}{}:
	default:
	}
}
