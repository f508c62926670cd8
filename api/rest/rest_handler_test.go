package rest_test

import (
	"context"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zlnvch/cocreate/api/rest"
	"github.com/zlnvch/cocreate/models"
	mqmocks "github.com/zlnvch/cocreate/mq/mocks"
	"github.com/zlnvch/cocreate/persona"
	"github.com/zlnvch/cocreate/service"
	"github.com/zlnvch/cocreate/store/memory"
)

func setupRouter(t *testing.T) (http.Handler, *service.Service, *mqmocks.MockMQ) {
	t.Helper()

	mockMQ := new(mqmocks.MockMQ)
	svc, err := service.NewService(memory.NewMemoryStore(), mockMQ, nil, persona.NewResponder(nil), []byte("secret"), time.Second)
	require.NoError(t, err)

	h := rest.NewHandler(svc)
	r := chi.NewRouter()
	r.Get("/personas", h.HandlePersonas)
	r.Get("/share/{token}", h.HandleResolveShareLink)
	r.Route("/workspaces/{ws}", func(r chi.Router) {
		r.Get("/sessions", h.HandleListSessions)
		r.Post("/sessions", h.HandleCreateSession)
		r.Post("/sessions/bulk-delete", h.HandleBulkDelete)
		r.Get("/sessions/{id}", h.HandleGetSession)
		r.Delete("/sessions/{id}", h.HandleDeleteSession)
		r.Put("/sessions/{id}/messages", h.HandleSetMessages)
		r.Post("/sessions/{id}/share", h.HandleCreateShareLink)
		r.Put("/sessions/{id}/mode", h.HandleSetMode)
		r.Post("/sessions/{id}/messages/{messageId}/snippet", h.HandleSaveMessageSnippet)
		r.Post("/chat", h.HandleChat)
		r.Get("/snippets", h.HandleListSnippets)
		r.Put("/preferences/dark-mode", h.HandleSetDarkMode)
		r.Post("/preferences/onboarding", h.HandleOnboarding)
		r.Delete("/preferences/onboarding", h.HandleOnboarding)
		r.Post("/invite", h.HandleInvite)
		r.Get("/collaborators", h.HandleCollaborators)
		r.Get("/whiteboard.png", h.HandleExportWhiteboard)
	})

	return r, svc, mockMQ
}

func do(t *testing.T, handler http.Handler, method string, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestSessionLifecycle(t *testing.T) {
	router, _, _ := setupRouter(t)

	rec := do(t, router, http.MethodPost, "/workspaces/ws1/sessions", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	session := decode[models.Session](t, rec)
	assert.Equal(t, "New chat", session.Title)

	rec = do(t, router, http.MethodPut, "/workspaces/ws1/sessions/"+session.Id+"/messages",
		`{"messages":[{"role":"user","content":"Sketch a logo"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Sketch a logo", decode[models.Session](t, rec).Title)

	rec = do(t, router, http.MethodPut, "/workspaces/ws1/sessions/"+session.Id+"/mode", `{"mode":"design"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, "/workspaces/ws1/sessions?q=logo&mode=design", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[service.SessionList](t, rec)
	assert.Equal(t, session.Id, list.CurrentId)
	require.Len(t, list.Groups, 1)
	assert.Equal(t, "Today", list.Groups[0].Label)

	rec = do(t, router, http.MethodDelete, "/workspaces/ws1/sessions/"+session.Id, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, router, http.MethodGet, "/workspaces/ws1/sessions/"+session.Id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	router, _, _ := setupRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"invalid workspace", http.MethodGet, "/workspaces/bad%20id/sessions", "", http.StatusBadRequest},
		{"invalid mode filter", http.MethodGet, "/workspaces/ws1/sessions?mode=paint", "", http.StatusBadRequest},
		{"unknown session", http.MethodGet, "/workspaces/ws1/sessions/missing", "", http.StatusNotFound},
		{"malformed body", http.MethodPut, "/workspaces/ws1/sessions/missing/messages", "{", http.StatusBadRequest},
		{"chat without session", http.MethodPost, "/workspaces/ws1/chat", `{"content":"hi"}`, http.StatusConflict},
		{"bad share token", http.MethodGet, "/share/nope", "", http.StatusUnauthorized},
		{"dark mode missing", http.MethodPut, "/workspaces/ws1/preferences/dark-mode", `{}`, http.StatusBadRequest},
		{"unknown message", http.MethodPost, "/workspaces/ws1/sessions/missing/messages/m1/snippet", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestChat_SchedulesReply(t *testing.T) {
	router, _, mockMQ := setupRouter(t)
	mockMQ.On("Send", mock.Anything, mock.AnythingOfType("string"), time.Second).Return(nil)

	do(t, router, http.MethodPost, "/workspaces/ws1/sessions", "")

	rec := do(t, router, http.MethodPost, "/workspaces/ws1/chat", `{"content":"   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/workspaces/ws1/chat", `{"content":"hello","persona":"developer"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	msg := decode[models.Message](t, rec)
	assert.Equal(t, models.RoleUser, msg.Role)
	assert.Equal(t, "hello", msg.Content)

	mockMQ.AssertNumberOfCalls(t, "Send", 1)
	body := mockMQ.Calls[0].Arguments.String(1)
	assert.Contains(t, body, `"persona":"developer"`)
}

func TestShareLink(t *testing.T) {
	router, svc, _ := setupRouter(t)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "ws1")
	require.NoError(t, err)

	rec := do(t, router, http.MethodPost, "/workspaces/ws1/sessions/"+session.Id+"/share", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	link := decode[service.ShareLink](t, rec)

	rec = do(t, router, http.MethodGet, "/share/"+link.Token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, session.Id, decode[models.Session](t, rec).Id)
}

func TestInvite(t *testing.T) {
	router, _, _ := setupRouter(t)

	rec := do(t, router, http.MethodPost, "/workspaces/ws1/invite", `{"email":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "please enter an email address", strings.TrimSpace(rec.Body.String()))

	rec = do(t, router, http.MethodPost, "/workspaces/ws1/invite", `{"email":"carol@example.com"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
}

func TestPreferencesAndOnboarding(t *testing.T) {
	router, _, _ := setupRouter(t)

	rec := do(t, router, http.MethodPut, "/workspaces/ws1/preferences/dark-mode", `{"darkMode":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[models.Preferences](t, rec).DarkMode)

	rec = do(t, router, http.MethodPost, "/workspaces/ws1/preferences/onboarding", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[models.Preferences](t, rec).OnboardingCompleted)

	rec = do(t, router, http.MethodDelete, "/workspaces/ws1/preferences/onboarding", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[models.Preferences](t, rec).OnboardingCompleted)
}

func TestSnippetFromMessage(t *testing.T) {
	router, svc, _ := setupRouter(t)
	ctx := context.Background()

	session, _ := svc.CreateSession(ctx, "ws1")
	svc.AppendMessages(ctx, "ws1", session.Id, []models.Message{{Id: "a1", Role: models.RoleAI, Content: "Use teal"}})

	rec := do(t, router, http.MethodPost, "/workspaces/ws1/sessions/"+session.Id+"/messages/a1/snippet", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, []string{"ai-response"}, decode[models.Snippet](t, rec).Tags)

	rec = do(t, router, http.MethodGet, "/workspaces/ws1/snippets?tag=ai-response", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[service.SnippetList](t, rec)
	require.Len(t, list.Snippets, 1)
	assert.Equal(t, "Use teal", list.Snippets[0].Content)
}

func TestPersonasAndCollaborators(t *testing.T) {
	router, _, _ := setupRouter(t)

	rec := do(t, router, http.MethodGet, "/personas", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]persona.Profile](t, rec), 5)

	rec = do(t, router, http.MethodGet, "/workspaces/ws1/collaborators", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Collaborator](t, rec), 3)
}

func TestExportWhiteboard(t *testing.T) {
	router, svc, _ := setupRouter(t)

	rec := do(t, router, http.MethodGet, "/workspaces/ws1/whiteboard.png", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, rec.Body.Len())

	board, err := svc.Whiteboard(context.Background(), "ws1")
	require.NoError(t, err)
	require.NoError(t, board.Mount(20, 10))

	rec = do(t, router, http.MethodGet, "/workspaces/ws1/whiteboard.png", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 20, img.Bounds().Dx())
}
