package mq

import (
	"context"
	"time"
)

type MessageQueue interface {
	// Send enqueues body so it becomes receivable no earlier than delay from now.
	Send(ctx context.Context, body string, delay time.Duration) error
	// Receive long-polls for one message. A nil message with a nil error
	// means the poll ended empty.
	Receive(ctx context.Context, visibilityTimeout int32) (*Message, error)
	Delete(ctx context.Context, msg *Message) error
}

type Message struct {
	Id   string
	Body string
}
