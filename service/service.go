package service

import (
	"errors"
	"sync"
	"time"

	"github.com/zlnvch/cocreate/mq"
	"github.com/zlnvch/cocreate/persona"
	"github.com/zlnvch/cocreate/pubsub"
	"github.com/zlnvch/cocreate/store"
)

const DefaultReplyDelay = time.Second

type Service struct {
	Store      store.KVStore
	MQ         mq.MessageQueue
	Broker     pubsub.Broker
	Responder  *persona.Responder
	JWTSecret  []byte
	ReplyDelay time.Duration
	Now        func() time.Time

	mu         sync.Mutex
	workspaces map[string]*Workspace
}

func NewService(
	store store.KVStore,
	mq mq.MessageQueue,
	broker pubsub.Broker,
	responder *persona.Responder,
	jwtSecret []byte,
	replyDelay time.Duration,
) (*Service, error) {
	if len(jwtSecret) == 0 {
		return nil, errors.New("jwt secret cannot be empty")
	}
	if responder == nil {
		responder = persona.NewResponder(nil)
	}
	if replyDelay < 0 {
		replyDelay = DefaultReplyDelay
	}

	return &Service{
		Store:      store,
		MQ:         mq,
		Broker:     broker,
		Responder:  responder,
		JWTSecret:  jwtSecret,
		ReplyDelay: replyDelay,
		Now:        time.Now,
		workspaces: make(map[string]*Workspace),
	}, nil
}
