package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/zlnvch/cocreate/mq"
)

// ReplyJob asks for one assistant reply in a session. Epoch is the
// workspace reply epoch at send time; the job is stale once it moves.
type ReplyJob struct {
	WorkspaceId string `json:"workspaceId"`
	SessionId   string `json:"sessionId"`
	Persona     string `json:"persona"`
	Input       string `json:"input"`
	Epoch       uint64 `json:"epoch"`
}

type ReplyDeliverer interface {
	DeliverReply(ctx context.Context, job ReplyJob) error
}

type ReplyConsumer struct {
	replyQueue mq.MessageQueue
	deliverer  ReplyDeliverer
}

func NewReplyConsumer(replyQueue mq.MessageQueue, deliverer ReplyDeliverer) *ReplyConsumer {
	return &ReplyConsumer{
		replyQueue: replyQueue,
		deliverer:  deliverer,
	}
}

// Delivering a reply is a single store write and a publish
const visibilityTimeout = 30

// Run consumes reply jobs until shutdownCtx is done. Every received message
// is deleted after one delivery attempt, successful or not.
func (replyConsumer *ReplyConsumer) Run(shutdownCtx context.Context) {
	for {
		msg, err := replyConsumer.replyQueue.Receive(shutdownCtx, visibilityTimeout)

		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			log.Printf("replyConsumer receive error: %v", err)
			// Avoid spinning on a broken queue
			select {
			case <-shutdownCtx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		if msg == nil {
			continue
		}

		replyConsumer.handle(msg)

		if err := replyConsumer.replyQueue.Delete(context.Background(), msg); err != nil {
			log.Printf("replyConsumer delete error: %v", err)
		}
	}
}

func (replyConsumer *ReplyConsumer) handle(msg *mq.Message) {
	var job ReplyJob
	if err := json.Unmarshal([]byte(msg.Body), &job); err != nil {
		log.Printf("Dropping malformed reply job %s: %v", msg.Id, err)
		return
	}

	// timeout should be a little less than queue visibility timeout
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(visibilityTimeout-1)*time.Second)
	defer cancel()

	if err := replyConsumer.deliverer.DeliverReply(ctx, job); err != nil {
		log.Printf("Failed to deliver reply for session %s in workspace %s: %v", job.SessionId, job.WorkspaceId, err)
	}
}
