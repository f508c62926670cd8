package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"slices"
	"strings"

	"github.com/zlnvch/cocreate/models"
	"github.com/zlnvch/cocreate/persona"
	"github.com/zlnvch/cocreate/pubsub"
	"github.com/zlnvch/cocreate/worker"
)

type SendParams struct {
	WorkspaceId string
	Content     string
	Persona     persona.Persona
}

type MessageAppendedMessage struct {
	Type string              `json:"type"`
	Data MessageAppendedData `json:"data"`
}

type MessageAppendedData struct {
	SessionId string         `json:"sessionId"`
	Message   models.Message `json:"message"`
}

const MessageAppendedType = "message_appended"

// SendMessage appends a user message to the current session and schedules
// the assistant reply after the reply delay.
func (s *Service) SendMessage(ctx context.Context, params SendParams) (models.Message, error) {
	if strings.TrimSpace(params.Content) == "" {
		return models.Message{}, ErrEmptyMessage
	}
	if len(params.Content) > maxContentLength {
		return models.Message{}, ErrContentTooLong
	}

	w, err := s.Workspace(ctx, params.WorkspaceId)
	if err != nil {
		return models.Message{}, err
	}
	id, err := newId()
	if err != nil {
		return models.Message{}, err
	}

	msg := models.Message{
		Id:        id,
		Role:      models.RoleUser,
		Content:   params.Content,
		Timestamp: s.Now(),
	}

	w.mu.Lock()
	idx := w.sessionIndex(w.currentId)
	if idx < 0 {
		w.mu.Unlock()
		return models.Message{}, ErrNoCurrentSession
	}
	sessionId := w.currentId
	s.replaceMessages(ctx, w, idx, append(slices.Clone(w.sessions[idx].Messages), msg))
	job := worker.ReplyJob{
		WorkspaceId: w.Id,
		SessionId:   sessionId,
		Persona:     string(params.Persona),
		Input:       params.Content,
		Epoch:       w.replyEpoch,
	}
	w.mu.Unlock()

	s.publishMessageAppended(ctx, w.Id, sessionId, msg)

	body, err := json.Marshal(job)
	if err != nil {
		return msg, err
	}
	if err := s.MQ.Send(ctx, string(body), s.ReplyDelay); err != nil {
		return msg, fmt.Errorf("schedule reply: %w", err)
	}

	return msg, nil
}

// DeliverReply appends one persona reply to the session's latest messages.
// Jobs from an older reply epoch, or for a session that is gone, are
// dropped without error.
func (s *Service) DeliverReply(ctx context.Context, job worker.ReplyJob) error {
	w, err := s.Workspace(ctx, job.WorkspaceId)
	if err != nil {
		return err
	}
	id, err := newId()
	if err != nil {
		return err
	}

	w.mu.Lock()
	if job.Epoch != w.replyEpoch {
		w.mu.Unlock()
		log.Printf("Dropping stale reply for session %s in workspace %s", job.SessionId, job.WorkspaceId)
		return nil
	}
	idx := w.sessionIndex(job.SessionId)
	if idx < 0 {
		w.mu.Unlock()
		log.Printf("Dropping reply for missing session %s in workspace %s", job.SessionId, job.WorkspaceId)
		return nil
	}

	msg := models.Message{
		Id:        id,
		Role:      models.RoleAI,
		Content:   s.Responder.Respond(job.Input, persona.Persona(job.Persona)),
		Timestamp: s.Now(),
	}
	s.replaceMessages(ctx, w, idx, append(slices.Clone(w.sessions[idx].Messages), msg))
	w.mu.Unlock()

	s.publishMessageAppended(ctx, w.Id, job.SessionId, msg)
	return nil
}

func (s *Service) publishMessageAppended(ctx context.Context, workspaceId string, sessionId string, msg models.Message) {
	if s.Broker == nil {
		return
	}
	event := MessageAppendedMessage{
		Type: MessageAppendedType,
		Data: MessageAppendedData{SessionId: sessionId, Message: msg},
	}
	b, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := s.Broker.Publish(ctx, pubsub.WorkspaceChannel(workspaceId), b); err != nil {
		log.Printf("Failed to publish message for workspace %s: %v", workspaceId, err)
	}
}
