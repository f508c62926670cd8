package service

import (
	"context"
	"slices"
	"unicode/utf8"

	"github.com/zlnvch/cocreate/models"
)

const (
	DefaultTitle   = "New chat"
	maxTitleLength = 50
)

// DeriveTitle is the first user message cut to 50 characters, with "..."
// appended only when something was cut.
func DeriveTitle(messages []models.Message) string {
	for _, m := range messages {
		if m.Role != models.RoleUser {
			continue
		}
		if utf8.RuneCountInString(m.Content) <= maxTitleLength {
			return m.Content
		}
		return string([]rune(m.Content)[:maxTitleLength]) + "..."
	}
	return DefaultTitle
}

// CreateSession inserts an empty idea session at the front and makes it
// current.
func (s *Service) CreateSession(ctx context.Context, workspaceId string) (models.Session, error) {
	w, err := s.Workspace(ctx, workspaceId)
	if err != nil {
		return models.Session{}, err
	}
	id, err := newId()
	if err != nil {
		return models.Session{}, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	session := models.Session{
		Id:       id,
		Mode:     models.ModeIdea,
		Title:    DefaultTitle,
		Date:     s.Now(),
		Messages: []models.Message{},
	}
	w.sessions = slices.Insert(w.sessions, 0, session)
	w.setCurrent(session.Id)
	s.persistSessions(ctx, w)

	return cloneSession(session), nil
}

func (s *Service) SelectSession(ctx context.Context, workspaceId string, sessionId string) (models.Session, error) {
	w, err := s.Workspace(ctx, workspaceId)
	if err != nil {
		return models.Session{}, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	idx := w.sessionIndex(sessionId)
	if idx < 0 {
		return models.Session{}, ErrSessionNotFound
	}
	w.setCurrent(sessionId)
	return cloneSession(w.sessions[idx]), nil
}

// DeleteSession removes the session if present. Deleting the current
// session moves current to the new front, or clears it.
func (s *Service) DeleteSession(ctx context.Context, workspaceId string, sessionId string) error {
	_, err := s.BulkDeleteSessions(ctx, workspaceId, []string{sessionId})
	return err
}

// BulkDeleteSessions removes every listed session and returns how many
// existed. The current-session rule is applied once, after all removals.
func (s *Service) BulkDeleteSessions(ctx context.Context, workspaceId string, sessionIds []string) (int, error) {
	w, err := s.Workspace(ctx, workspaceId)
	if err != nil {
		return 0, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	before := len(w.sessions)
	w.sessions = slices.DeleteFunc(w.sessions, func(session models.Session) bool {
		return slices.Contains(sessionIds, session.Id)
	})
	removed := before - len(w.sessions)
	if removed == 0 {
		return 0, nil
	}

	if w.currentId != "" && w.sessionIndex(w.currentId) < 0 {
		next := ""
		if len(w.sessions) > 0 {
			next = w.sessions[0].Id
		}
		w.setCurrent(next)
	}
	s.persistSessions(ctx, w)
	return removed, nil
}

// AppendMessages replaces the session's messages with the given complete
// list and refreshes its title and date. Messages without an id get one.
func (s *Service) AppendMessages(ctx context.Context, workspaceId string, sessionId string, messages []models.Message) (models.Session, error) {
	if err := validateMessages(messages); err != nil {
		return models.Session{}, err
	}
	messages = slices.Clone(messages)
	if messages == nil {
		messages = []models.Message{}
	}
	for i := range messages {
		if messages[i].Id != "" {
			continue
		}
		id, err := newId()
		if err != nil {
			return models.Session{}, err
		}
		messages[i].Id = id
	}

	w, err := s.Workspace(ctx, workspaceId)
	if err != nil {
		return models.Session{}, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	idx := w.sessionIndex(sessionId)
	if idx < 0 {
		return models.Session{}, ErrSessionNotFound
	}
	s.replaceMessages(ctx, w, idx, messages)
	return cloneSession(w.sessions[idx]), nil
}

// replaceMessages must be called with w.mu held.
func (s *Service) replaceMessages(ctx context.Context, w *Workspace, idx int, messages []models.Message) {
	session := &w.sessions[idx]
	session.Messages = messages
	session.Title = DeriveTitle(messages)
	session.Date = s.Now()
	s.persistSessions(ctx, w)
}

func (s *Service) GetSession(ctx context.Context, workspaceId string, sessionId string) (models.Session, error) {
	w, err := s.Workspace(ctx, workspaceId)
	if err != nil {
		return models.Session{}, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	idx := w.sessionIndex(sessionId)
	if idx < 0 {
		return models.Session{}, ErrSessionNotFound
	}
	return cloneSession(w.sessions[idx]), nil
}

// CurrentSession returns the current session, or false when there is none.
func (s *Service) CurrentSession(ctx context.Context, workspaceId string) (models.Session, bool, error) {
	w, err := s.Workspace(ctx, workspaceId)
	if err != nil {
		return models.Session{}, false, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	idx := w.sessionIndex(w.currentId)
	if idx < 0 {
		return models.Session{}, false, nil
	}
	return cloneSession(w.sessions[idx]), true, nil
}

type SessionList struct {
	CurrentId string         `json:"currentId,omitempty"`
	Groups    []SessionGroup `json:"groups"`
}

// ListSessions filters by title substring and mode ("" or "all" for every
// mode) and groups the result by recency.
func (s *Service) ListSessions(ctx context.Context, workspaceId string, query string, mode string) (SessionList, error) {
	modeFilter, err := ParseModeFilter(mode)
	if err != nil {
		return SessionList{}, err
	}

	w, err := s.Workspace(ctx, workspaceId)
	if err != nil {
		return SessionList{}, err
	}

	w.mu.Lock()
	sessions := cloneSessions(w.sessions)
	currentId := w.currentId
	w.mu.Unlock()

	return SessionList{
		CurrentId: currentId,
		Groups:    BucketByRecency(FilterSessions(sessions, query, modeFilter), s.Now()),
	}, nil
}

func (s *Service) ToggleFavorite(ctx context.Context, workspaceId string, sessionId string) (models.Session, error) {
	return s.updateSession(ctx, workspaceId, sessionId, func(session *models.Session) {
		session.Favorite = !session.Favorite
	})
}

func (s *Service) SetTags(ctx context.Context, workspaceId string, sessionId string, tags []string) (models.Session, error) {
	tags, err := NormalizeTags(tags)
	if err != nil {
		return models.Session{}, err
	}
	return s.updateSession(ctx, workspaceId, sessionId, func(session *models.Session) {
		session.Tags = tags
	})
}

func (s *Service) SetSessionMode(ctx context.Context, workspaceId string, sessionId string, mode string) (models.Session, error) {
	m, err := ParseMode(mode)
	if err != nil {
		return models.Session{}, err
	}
	return s.updateSession(ctx, workspaceId, sessionId, func(session *models.Session) {
		session.Mode = m
	})
}

// updateSession edits metadata in place. Unlike AppendMessages it leaves
// the title and date alone.
func (s *Service) updateSession(ctx context.Context, workspaceId string, sessionId string, update func(session *models.Session)) (models.Session, error) {
	w, err := s.Workspace(ctx, workspaceId)
	if err != nil {
		return models.Session{}, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	idx := w.sessionIndex(sessionId)
	if idx < 0 {
		return models.Session{}, ErrSessionNotFound
	}
	update(&w.sessions[idx])
	s.persistSessions(ctx, w)
	return cloneSession(w.sessions[idx]), nil
}
