// Package memq is an in-process MessageQueue for development and tests.
// Delivery is at-most-once: a received message is gone, so visibility
// timeouts are accepted but have no effect.
package memq

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/zlnvch/cocreate/mq"
)

const defaultPollWait = 20 * time.Second

type MemoryQueue struct {
	ready    chan mq.Message
	nextId   atomic.Uint64
	pollWait time.Duration
}

func NewMemoryQueue() *MemoryQueue {
	return NewMemoryQueueWithPollWait(defaultPollWait)
}

func NewMemoryQueueWithPollWait(pollWait time.Duration) *MemoryQueue {
	return &MemoryQueue{
		ready:    make(chan mq.Message, 1024),
		pollWait: pollWait,
	}
}

func (q *MemoryQueue) Send(ctx context.Context, body string, delay time.Duration) error {
	msg := mq.Message{
		Id:   strconv.FormatUint(q.nextId.Add(1), 10),
		Body: body,
	}

	if delay <= 0 {
		select {
		case q.ready <- msg:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	time.AfterFunc(delay, func() {
		q.ready <- msg
	})
	return nil
}

func (q *MemoryQueue) Receive(ctx context.Context, visibilityTimeout int32) (*mq.Message, error) {
	timer := time.NewTimer(q.pollWait)
	defer timer.Stop()

	select {
	case msg := <-q.ready:
		return &msg, nil
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *MemoryQueue) Delete(ctx context.Context, msg *mq.Message) error {
	return nil
}
