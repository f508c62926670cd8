package service_test

import (
	"bytes"
	"context"
	"image/png"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zlnvch/cocreate/models"
	"github.com/zlnvch/cocreate/service"
)

func TestShareLink_RoundTrip(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	session, _ := env.svc.CreateSession(ctx, testWorkspace)
	env.svc.AppendMessages(ctx, testWorkspace, session.Id, []models.Message{{Role: models.RoleUser, Content: "shared idea"}})

	link, err := env.svc.CreateShareLink(ctx, testWorkspace, session.Id)
	require.NoError(t, err)
	assert.NotEmpty(t, link.Token)
	assert.True(t, env.clock.now.Add(7*24*time.Hour).Equal(link.Expires))

	workspaceId, sessionId, err := env.svc.VerifyShareLink(link.Token)
	require.NoError(t, err)
	assert.Equal(t, testWorkspace, workspaceId)
	assert.Equal(t, session.Id, sessionId)

	shared, err := env.svc.ResolveShareLink(ctx, link.Token)
	require.NoError(t, err)
	assert.Equal(t, "shared idea", shared.Title)
}

func TestShareLink_UnknownSession(t *testing.T) {
	env := setupService(t)

	_, err := env.svc.CreateShareLink(context.Background(), testWorkspace, "missing")
	assert.ErrorIs(t, err, service.ErrSessionNotFound)
}

func TestShareLink_Expired(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	session, _ := env.svc.CreateSession(ctx, testWorkspace)
	link, err := env.svc.CreateShareLink(ctx, testWorkspace, session.Id)
	require.NoError(t, err)

	env.clock.Advance(7*24*time.Hour + time.Minute)

	_, err = env.svc.ResolveShareLink(ctx, link.Token)
	assert.ErrorIs(t, err, service.ErrInvalidShareLink)
}

func TestShareLink_Invalid(t *testing.T) {
	env := setupService(t)

	for _, token := range []string{"", "invalid.token.string"} {
		_, _, err := env.svc.VerifyShareLink(token)
		assert.ErrorIs(t, err, service.ErrInvalidShareLink)
	}

	// Signed with another secret
	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"workspaceId": testWorkspace,
		"sessionId":   "s1",
		"exp":         env.clock.now.Add(time.Hour).Unix(),
	})
	signed, err := forged.SignedString([]byte("other"))
	require.NoError(t, err)
	_, _, err = env.svc.VerifyShareLink(signed)
	assert.ErrorIs(t, err, service.ErrInvalidShareLink)

	// Missing expiry
	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"workspaceId": testWorkspace,
		"sessionId":   "s1",
	})
	signed, err = noExp.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, _, err = env.svc.VerifyShareLink(signed)
	assert.ErrorIs(t, err, service.ErrInvalidShareLink)

	// Missing session claim
	noSession := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"workspaceId": testWorkspace,
		"exp":         env.clock.now.Add(time.Hour).Unix(),
	})
	signed, err = noSession.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, _, err = env.svc.VerifyShareLink(signed)
	assert.ErrorIs(t, err, service.ErrInvalidShareLink)
}

func TestInviteByEmail(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	assert.ErrorIs(t, env.svc.InviteByEmail(ctx, testWorkspace, ""), service.ErrEmptyEmail)
	assert.ErrorIs(t, env.svc.InviteByEmail(ctx, testWorkspace, "   "), service.ErrEmptyEmail)
	assert.EqualError(t, env.svc.InviteByEmail(ctx, testWorkspace, ""), "please enter an email address")
	assert.ErrorIs(t, env.svc.InviteByEmail(ctx, testWorkspace, "not-an-email"), service.ErrInvalidEmail)
	assert.ErrorIs(t, env.svc.InviteByEmail(ctx, testWorkspace, "Bob <bob@example.com>"), service.ErrInvalidEmail)
	assert.NoError(t, env.svc.InviteByEmail(ctx, testWorkspace, "bob@example.com"))
	assert.ErrorIs(t, env.svc.InviteByEmail(ctx, "bad id", "bob@example.com"), service.ErrInvalidWorkspace)
}

func TestCollaborators(t *testing.T) {
	env := setupService(t)

	collaborators, err := env.svc.Collaborators(context.Background(), testWorkspace)
	require.NoError(t, err)
	require.Len(t, collaborators, 3)
	assert.Equal(t, models.Collaborator{Id: "1", Name: "Alice", Color: "#8B5CF6", Active: true}, collaborators[0])
	assert.Equal(t, "Bob", collaborators[1].Name)
	assert.True(t, collaborators[1].Active)
	assert.Equal(t, "Carol", collaborators[2].Name)
	assert.False(t, collaborators[2].Active)
}

func TestExportWhiteboard(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	var buf bytes.Buffer
	exported, err := env.svc.ExportWhiteboard(ctx, testWorkspace, &buf)
	require.NoError(t, err)
	assert.False(t, exported)
	assert.Zero(t, buf.Len())

	board, _ := env.svc.Whiteboard(ctx, testWorkspace)
	require.NoError(t, board.Mount(32, 16))

	exported, err = env.svc.ExportWhiteboard(ctx, testWorkspace, &buf)
	require.NoError(t, err)
	assert.True(t, exported)
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 32, img.Bounds().Dx())
	assert.Equal(t, 16, img.Bounds().Dy())
}
