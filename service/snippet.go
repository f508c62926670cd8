package service

import (
	"context"
	"slices"
	"strings"

	"github.com/zlnvch/cocreate/models"
)

const (
	TagAIResponse = "ai-response"
	TagPrompt     = "prompt"
)

// SaveMessageSnippet copies a message into a new snippet. The snippet does
// not follow later changes to the session.
func (s *Service) SaveMessageSnippet(ctx context.Context, workspaceId string, sessionId string, messageId string) (models.Snippet, error) {
	w, err := s.Workspace(ctx, workspaceId)
	if err != nil {
		return models.Snippet{}, err
	}
	id, err := newId()
	if err != nil {
		return models.Snippet{}, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	idx := w.sessionIndex(sessionId)
	if idx < 0 {
		return models.Snippet{}, ErrSessionNotFound
	}
	msgIdx := slices.IndexFunc(w.sessions[idx].Messages, func(m models.Message) bool {
		return m.Id == messageId
	})
	if msgIdx < 0 {
		return models.Snippet{}, ErrMessageNotFound
	}
	msg := w.sessions[idx].Messages[msgIdx]

	tag := TagPrompt
	if msg.Role == models.RoleAI {
		tag = TagAIResponse
	}
	snippet := models.Snippet{
		Id:      id,
		Content: msg.Content,
		Tags:    []string{tag},
		Date:    s.Now(),
	}
	s.addSnippetLocked(ctx, w, snippet)
	return snippet, nil
}

func (s *Service) AddSnippet(ctx context.Context, workspaceId string, content string, tags []string) (models.Snippet, error) {
	if strings.TrimSpace(content) == "" {
		return models.Snippet{}, ErrEmptySnippet
	}
	if len(content) > maxContentLength {
		return models.Snippet{}, ErrContentTooLong
	}
	tags, err := NormalizeTags(tags)
	if err != nil {
		return models.Snippet{}, err
	}

	w, err := s.Workspace(ctx, workspaceId)
	if err != nil {
		return models.Snippet{}, err
	}
	id, err := newId()
	if err != nil {
		return models.Snippet{}, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	snippet := models.Snippet{
		Id:      id,
		Content: content,
		Tags:    tags,
		Date:    s.Now(),
	}
	s.addSnippetLocked(ctx, w, snippet)
	return snippet, nil
}

// Newest first.
func (s *Service) addSnippetLocked(ctx context.Context, w *Workspace, snippet models.Snippet) {
	w.snippets = slices.Insert(w.snippets, 0, snippet)
	s.persistSnippets(ctx, w)
}

func (s *Service) DeleteSnippet(ctx context.Context, workspaceId string, snippetId string) error {
	w, err := s.Workspace(ctx, workspaceId)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	idx := slices.IndexFunc(w.snippets, func(snippet models.Snippet) bool {
		return snippet.Id == snippetId
	})
	if idx < 0 {
		return ErrSnippetNotFound
	}
	w.snippets = slices.Delete(w.snippets, idx, idx+1)
	s.persistSnippets(ctx, w)
	return nil
}

type SnippetList struct {
	Snippets []models.Snippet `json:"snippets"`
	// Every tag across all snippets, in first-seen order
	Tags []string `json:"tags"`
}

// ListSnippets filters by content substring, ignoring case, and by tag
// when tag is non-empty.
func (s *Service) ListSnippets(ctx context.Context, workspaceId string, query string, tag string) (SnippetList, error) {
	w, err := s.Workspace(ctx, workspaceId)
	if err != nil {
		return SnippetList{}, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	query = strings.ToLower(query)
	list := SnippetList{Snippets: []models.Snippet{}, Tags: []string{}}
	for _, snippet := range w.snippets {
		for _, t := range snippet.Tags {
			if !slices.Contains(list.Tags, t) {
				list.Tags = append(list.Tags, t)
			}
		}
		if !strings.Contains(strings.ToLower(snippet.Content), query) {
			continue
		}
		if tag != "" && !slices.Contains(snippet.Tags, tag) {
			continue
		}
		snippet.Tags = slices.Clone(snippet.Tags)
		list.Snippets = append(list.Snippets, snippet)
	}
	return list, nil
}
