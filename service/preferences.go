package service

import (
	"context"
	"log"
	"strconv"

	"github.com/zlnvch/cocreate/models"
)

func (s *Service) Preferences(ctx context.Context, workspaceId string) (models.Preferences, error) {
	w, err := s.Workspace(ctx, workspaceId)
	if err != nil {
		return models.Preferences{}, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.prefs, nil
}

func (s *Service) MarkVisited(ctx context.Context, workspaceId string) (models.Preferences, error) {
	return s.updatePreferences(ctx, workspaceId, func(w *Workspace) {
		w.prefs.Visited = true
		s.setString(ctx, WorkspaceKey(w.Id, KeyVisited), "true")
	})
}

// SetDarkMode stores the theme and switches the whiteboard to it. Strokes
// already on the board keep their colour.
func (s *Service) SetDarkMode(ctx context.Context, workspaceId string, dark bool) (models.Preferences, error) {
	return s.updatePreferences(ctx, workspaceId, func(w *Workspace) {
		w.prefs.DarkMode = dark
		w.Board.SetTheme(dark)
		s.setString(ctx, WorkspaceKey(w.Id, KeyDarkMode), strconv.FormatBool(dark))
	})
}

func (s *Service) CompleteOnboarding(ctx context.Context, workspaceId string) (models.Preferences, error) {
	return s.updatePreferences(ctx, workspaceId, func(w *Workspace) {
		w.prefs.OnboardingCompleted = true
		s.setString(ctx, WorkspaceKey(w.Id, KeyOnboarding), "true")
	})
}

// ResetOnboarding removes the flag so the walkthrough shows again.
func (s *Service) ResetOnboarding(ctx context.Context, workspaceId string) (models.Preferences, error) {
	return s.updatePreferences(ctx, workspaceId, func(w *Workspace) {
		w.prefs.OnboardingCompleted = false
		if err := s.Store.Remove(ctx, WorkspaceKey(w.Id, KeyOnboarding)); err != nil {
			log.Printf("Failed to reset onboarding for workspace %s: %v", w.Id, err)
		}
	})
}

func (s *Service) updatePreferences(ctx context.Context, workspaceId string, update func(w *Workspace)) (models.Preferences, error) {
	w, err := s.Workspace(ctx, workspaceId)
	if err != nil {
		return models.Preferences{}, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	update(w)
	return w.prefs, nil
}
