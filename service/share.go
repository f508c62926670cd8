package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/zlnvch/cocreate/models"
)

const shareLinkTTL = 7 * 24 * time.Hour

type ShareLink struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

// CreateShareLink signs a read-only link to one session.
func (s *Service) CreateShareLink(ctx context.Context, workspaceId string, sessionId string) (ShareLink, error) {
	if _, err := s.GetSession(ctx, workspaceId, sessionId); err != nil {
		return ShareLink{}, err
	}

	now := s.Now()
	expires := now.Add(shareLinkTTL)
	claims := jwt.MapClaims{
		"workspaceId": workspaceId,
		"sessionId":   sessionId,
		"exp":         expires.Unix(),
		"iat":         now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(s.JWTSecret)
	if err != nil {
		return ShareLink{}, err
	}

	return ShareLink{Token: signedToken, Expires: expires.UTC().Truncate(time.Second)}, nil
}

func (s *Service) VerifyShareLink(tokenString string) (string, string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		return s.JWTSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.Now),
	)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidShareLink, err)
	}

	if !token.Valid {
		return "", "", ErrInvalidShareLink
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", fmt.Errorf("%w: invalid claims", ErrInvalidShareLink)
	}

	workspaceId, ok := claims["workspaceId"].(string)
	if !ok {
		return "", "", fmt.Errorf("%w: missing workspaceId claim", ErrInvalidShareLink)
	}

	sessionId, ok := claims["sessionId"].(string)
	if !ok {
		return "", "", fmt.Errorf("%w: missing sessionId claim", ErrInvalidShareLink)
	}

	return workspaceId, sessionId, nil
}

// ResolveShareLink returns the shared session as it is now.
func (s *Service) ResolveShareLink(ctx context.Context, tokenString string) (models.Session, error) {
	workspaceId, sessionId, err := s.VerifyShareLink(tokenString)
	if err != nil {
		return models.Session{}, err
	}
	return s.GetSession(ctx, workspaceId, sessionId)
}

// InviteByEmail validates the address. There is no mail delivery; the
// invite is only logged.
func (s *Service) InviteByEmail(ctx context.Context, workspaceId string, email string) error {
	if err := ValidateWorkspaceId(workspaceId); err != nil {
		return err
	}
	if err := ValidateEmail(email); err != nil {
		return err
	}
	log.Printf("Invite for workspace %s sent to %s", workspaceId, strings.TrimSpace(email))
	return nil
}

var collaborators = []models.Collaborator{
	{Id: "1", Name: "Alice", Color: "#8B5CF6", Active: true},
	{Id: "2", Name: "Bob", Color: "#3B82F6", Active: true},
	{Id: "3", Name: "Carol", Color: "#EC4899", Active: false},
}

// Collaborators is a fixed roster; presence is not tracked.
func (s *Service) Collaborators(ctx context.Context, workspaceId string) ([]models.Collaborator, error) {
	if err := ValidateWorkspaceId(workspaceId); err != nil {
		return nil, err
	}
	out := make([]models.Collaborator, len(collaborators))
	copy(out, collaborators)
	return out, nil
}
