package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"

	"github.com/gofrs/uuid/v5"
	"github.com/zlnvch/cocreate/canvas"
	"github.com/zlnvch/cocreate/models"
	"github.com/zlnvch/cocreate/store"
)

// Key names within a workspace namespace.
const (
	KeySessions   = "cocreate-sessions"
	KeyVisited    = "cocreate-visited"
	KeyDarkMode   = "cocreate-darkmode"
	KeyOnboarding = "cocreate-onboarding"
	KeySnippets   = "cocreate-snippets"
)

func WorkspaceKey(workspaceId string, name string) string {
	return "workspace:" + workspaceId + ":" + name
}

// Workspace owns one session list, its current pointer, the snippets, the
// preferences and the whiteboard. Every field except Id and Board is
// guarded by mu.
type Workspace struct {
	Id    string
	Board *canvas.Board

	mu         sync.Mutex
	sessions   []models.Session
	currentId  string
	snippets   []models.Snippet
	prefs      models.Preferences
	replyEpoch uint64
}

// Workspace returns the loaded workspace, reading its state from the store
// on first use. The read happens outside s.mu so a slow store only delays
// the workspace being loaded.
func (s *Service) Workspace(ctx context.Context, workspaceId string) (*Workspace, error) {
	if err := ValidateWorkspaceId(workspaceId); err != nil {
		return nil, err
	}

	s.mu.Lock()
	w, ok := s.workspaces[workspaceId]
	s.mu.Unlock()
	if ok {
		return w, nil
	}

	loaded, err := s.loadWorkspace(ctx, workspaceId)
	if err != nil {
		return nil, fmt.Errorf("load workspace %s: %w", workspaceId, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// A concurrent first use may have stored its copy already; keep that one
	// so every caller shares one Workspace
	if w, ok := s.workspaces[workspaceId]; ok {
		return w, nil
	}
	s.workspaces[workspaceId] = loaded
	return loaded, nil
}

func (s *Service) loadWorkspace(ctx context.Context, workspaceId string) (*Workspace, error) {
	w := &Workspace{Id: workspaceId}

	if err := s.getJSON(ctx, WorkspaceKey(workspaceId, KeySessions), &w.sessions); err != nil {
		return nil, fmt.Errorf("sessions: %w", err)
	}
	if err := s.getJSON(ctx, WorkspaceKey(workspaceId, KeySnippets), &w.snippets); err != nil {
		return nil, fmt.Errorf("snippets: %w", err)
	}
	for i := range w.sessions {
		if w.sessions[i].Messages == nil {
			w.sessions[i].Messages = []models.Message{}
		}
	}
	if len(w.sessions) > 0 {
		w.currentId = w.sessions[0].Id
	}

	visited, err := s.hasKey(ctx, WorkspaceKey(workspaceId, KeyVisited))
	if err != nil {
		return nil, err
	}
	onboarded, err := s.hasKey(ctx, WorkspaceKey(workspaceId, KeyOnboarding))
	if err != nil {
		return nil, err
	}

	// Absent means dark; any stored value other than "true" means light
	dark := true
	darkMode, err := s.Store.Get(ctx, WorkspaceKey(workspaceId, KeyDarkMode))
	switch {
	case err == nil:
		dark = darkMode == "true"
	case !errors.Is(err, store.ErrItemNotFound):
		return nil, err
	}

	w.prefs = models.Preferences{
		Visited:             visited,
		DarkMode:            dark,
		OnboardingCompleted: onboarded,
	}
	w.Board = canvas.NewBoard(dark)
	return w, nil
}

func (s *Service) getJSON(ctx context.Context, key string, v any) error {
	raw, err := s.Store.Get(ctx, key)
	if errors.Is(err, store.ErrItemNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), v)
}

func (s *Service) hasKey(ctx context.Context, key string) (bool, error) {
	_, err := s.Store.Get(ctx, key)
	if errors.Is(err, store.ErrItemNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Persistence is attempt-once: failures are logged and the in-memory state
// stays authoritative.

func (s *Service) persistSessions(ctx context.Context, w *Workspace) {
	key := WorkspaceKey(w.Id, KeySessions)
	if len(w.sessions) == 0 {
		if err := s.Store.Remove(ctx, key); err != nil {
			log.Printf("Failed to remove sessions for workspace %s: %v", w.Id, err)
		}
		return
	}
	s.setJSON(ctx, key, w.sessions)
}

func (s *Service) persistSnippets(ctx context.Context, w *Workspace) {
	s.setJSON(ctx, WorkspaceKey(w.Id, KeySnippets), w.snippets)
}

func (s *Service) setJSON(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("Failed to marshal %s: %v", key, err)
		return
	}
	if err := s.Store.Set(ctx, key, string(b)); err != nil {
		log.Printf("Failed to write %s: %v", key, err)
	}
}

func (s *Service) setString(ctx context.Context, key string, value string) {
	if err := s.Store.Set(ctx, key, value); err != nil {
		log.Printf("Failed to write %s: %v", key, err)
	}
}

// setCurrent moves the current pointer. Any move invalidates replies that
// are still in flight.
func (w *Workspace) setCurrent(id string) {
	if w.currentId == id {
		return
	}
	w.currentId = id
	w.replyEpoch++
}

func (w *Workspace) sessionIndex(id string) int {
	return slices.IndexFunc(w.sessions, func(session models.Session) bool {
		return session.Id == id
	})
}

func newId() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func cloneSession(session models.Session) models.Session {
	session.Messages = slices.Clone(session.Messages)
	session.Tags = slices.Clone(session.Tags)
	return session
}

func cloneSessions(sessions []models.Session) []models.Session {
	out := make([]models.Session, len(sessions))
	for i, session := range sessions {
		out[i] = cloneSession(session)
	}
	return out
}
