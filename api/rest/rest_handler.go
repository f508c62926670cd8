package rest

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/zlnvch/cocreate/models"
	"github.com/zlnvch/cocreate/persona"
	"github.com/zlnvch/cocreate/service"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	Service *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{Service: svc}
}

func (h *Handler) HandlePersonas(w http.ResponseWriter, r *http.Request) {
	h.sendResponse(w, persona.Profiles())
}

func (h *Handler) HandleResolveShareLink(w http.ResponseWriter, r *http.Request) {
	session, err := h.Service.ResolveShareLink(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		h.sendError(w, "Resolve share link", err)
		return
	}
	h.sendResponse(w, session)
}

// Sessions

func (h *Handler) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	list, err := h.Service.ListSessions(r.Context(), workspaceId(r), query.Get("q"), query.Get("mode"))
	if err != nil {
		h.sendError(w, "List sessions", err)
		return
	}
	h.sendResponse(w, list)
}

func (h *Handler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.Service.CreateSession(r.Context(), workspaceId(r))
	if err != nil {
		h.sendError(w, "Create session", err)
		return
	}
	h.sendResponseWithStatus(w, http.StatusCreated, session)
}

func (h *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.Service.GetSession(r.Context(), workspaceId(r), chi.URLParam(r, "id"))
	if err != nil {
		h.sendError(w, "Get session", err)
		return
	}
	h.sendResponse(w, session)
}

func (h *Handler) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteSession(r.Context(), workspaceId(r), chi.URLParam(r, "id")); err != nil {
		h.sendError(w, "Delete session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleSelectSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.Service.SelectSession(r.Context(), workspaceId(r), chi.URLParam(r, "id"))
	if err != nil {
		h.sendError(w, "Select session", err)
		return
	}
	h.sendResponse(w, session)
}

type setMessagesRequest struct {
	Messages []models.Message `json:"messages"`
}

func (h *Handler) HandleSetMessages(w http.ResponseWriter, r *http.Request) {
	var req setMessagesRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	session, err := h.Service.AppendMessages(r.Context(), workspaceId(r), chi.URLParam(r, "id"), req.Messages)
	if err != nil {
		h.sendError(w, "Set messages", err)
		return
	}
	h.sendResponse(w, session)
}

func (h *Handler) HandleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	session, err := h.Service.ToggleFavorite(r.Context(), workspaceId(r), chi.URLParam(r, "id"))
	if err != nil {
		h.sendError(w, "Toggle favorite", err)
		return
	}
	h.sendResponse(w, session)
}

type setTagsRequest struct {
	Tags []string `json:"tags"`
}

func (h *Handler) HandleSetTags(w http.ResponseWriter, r *http.Request) {
	var req setTagsRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	session, err := h.Service.SetTags(r.Context(), workspaceId(r), chi.URLParam(r, "id"), req.Tags)
	if err != nil {
		h.sendError(w, "Set tags", err)
		return
	}
	h.sendResponse(w, session)
}

type setModeRequest struct {
	Mode string `json:"mode"`
}

func (h *Handler) HandleSetMode(w http.ResponseWriter, r *http.Request) {
	var req setModeRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	session, err := h.Service.SetSessionMode(r.Context(), workspaceId(r), chi.URLParam(r, "id"), req.Mode)
	if err != nil {
		h.sendError(w, "Set mode", err)
		return
	}
	h.sendResponse(w, session)
}

func (h *Handler) HandleCreateShareLink(w http.ResponseWriter, r *http.Request) {
	link, err := h.Service.CreateShareLink(r.Context(), workspaceId(r), chi.URLParam(r, "id"))
	if err != nil {
		h.sendError(w, "Create share link", err)
		return
	}
	h.sendResponseWithStatus(w, http.StatusCreated, link)
}

type bulkDeleteRequest struct {
	Ids []string `json:"ids"`
}

type bulkDeleteResponse struct {
	Deleted int `json:"deleted"`
}

func (h *Handler) HandleBulkDelete(w http.ResponseWriter, r *http.Request) {
	var req bulkDeleteRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	deleted, err := h.Service.BulkDeleteSessions(r.Context(), workspaceId(r), req.Ids)
	if err != nil {
		h.sendError(w, "Bulk delete", err)
		return
	}
	h.sendResponse(w, bulkDeleteResponse{Deleted: deleted})
}

// Chat

type chatRequest struct {
	Content string `json:"content"`
	Persona string `json:"persona"`
}

func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	p := persona.Persona(req.Persona)
	if p == "" {
		p = persona.DefaultPersona
	}

	msg, err := h.Service.SendMessage(r.Context(), service.SendParams{
		WorkspaceId: workspaceId(r),
		Content:     req.Content,
		Persona:     p,
	})
	if err != nil {
		h.sendError(w, "Send message", err)
		return
	}
	// The reply arrives later as a message_appended event
	h.sendResponseWithStatus(w, http.StatusAccepted, msg)
}

// Snippets

func (h *Handler) HandleListSnippets(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	list, err := h.Service.ListSnippets(r.Context(), workspaceId(r), query.Get("q"), query.Get("tag"))
	if err != nil {
		h.sendError(w, "List snippets", err)
		return
	}
	h.sendResponse(w, list)
}

type addSnippetRequest struct {
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

func (h *Handler) HandleAddSnippet(w http.ResponseWriter, r *http.Request) {
	var req addSnippetRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	snippet, err := h.Service.AddSnippet(r.Context(), workspaceId(r), req.Content, req.Tags)
	if err != nil {
		h.sendError(w, "Add snippet", err)
		return
	}
	h.sendResponseWithStatus(w, http.StatusCreated, snippet)
}

func (h *Handler) HandleSaveMessageSnippet(w http.ResponseWriter, r *http.Request) {
	snippet, err := h.Service.SaveMessageSnippet(r.Context(), workspaceId(r), chi.URLParam(r, "id"), chi.URLParam(r, "messageId"))
	if err != nil {
		h.sendError(w, "Save snippet", err)
		return
	}
	h.sendResponseWithStatus(w, http.StatusCreated, snippet)
}

func (h *Handler) HandleDeleteSnippet(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteSnippet(r.Context(), workspaceId(r), chi.URLParam(r, "id")); err != nil {
		h.sendError(w, "Delete snippet", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Preferences

func (h *Handler) HandleGetPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.Service.Preferences(r.Context(), workspaceId(r))
	h.sendPreferences(w, prefs, err)
}

func (h *Handler) HandleMarkVisited(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.Service.MarkVisited(r.Context(), workspaceId(r))
	h.sendPreferences(w, prefs, err)
}

type darkModeRequest struct {
	DarkMode *bool `json:"darkMode"`
}

func (h *Handler) HandleSetDarkMode(w http.ResponseWriter, r *http.Request) {
	var req darkModeRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if req.DarkMode == nil {
		http.Error(w, "darkMode is required", http.StatusBadRequest)
		return
	}

	prefs, err := h.Service.SetDarkMode(r.Context(), workspaceId(r), *req.DarkMode)
	h.sendPreferences(w, prefs, err)
}

func (h *Handler) HandleOnboarding(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		prefs, err := h.Service.CompleteOnboarding(r.Context(), workspaceId(r))
		h.sendPreferences(w, prefs, err)

	case http.MethodDelete:
		prefs, err := h.Service.ResetOnboarding(r.Context(), workspaceId(r))
		h.sendPreferences(w, prefs, err)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) sendPreferences(w http.ResponseWriter, prefs models.Preferences, err error) {
	if err != nil {
		h.sendError(w, "Preferences", err)
		return
	}
	h.sendResponse(w, prefs)
}

// Collaboration

type inviteRequest struct {
	Email string `json:"email"`
}

type successResponse struct {
	Success bool `json:"success"`
}

func (h *Handler) HandleInvite(w http.ResponseWriter, r *http.Request) {
	var req inviteRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	if err := h.Service.InviteByEmail(r.Context(), workspaceId(r), req.Email); err != nil {
		h.sendError(w, "Invite", err)
		return
	}
	h.sendResponse(w, successResponse{Success: true})
}

func (h *Handler) HandleCollaborators(w http.ResponseWriter, r *http.Request) {
	collaborators, err := h.Service.Collaborators(r.Context(), workspaceId(r))
	if err != nil {
		h.sendError(w, "Collaborators", err)
		return
	}
	h.sendResponse(w, collaborators)
}

// Whiteboard

// HandleExportWhiteboard answers 204 while the board has no surface.
func (h *Handler) HandleExportWhiteboard(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	exported, err := h.Service.ExportWhiteboard(r.Context(), workspaceId(r), &buf)
	if err != nil {
		h.sendError(w, "Export whiteboard", err)
		return
	}
	if !exported {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", `attachment; filename="whiteboard.png"`)
	w.Write(buf.Bytes())
}

func workspaceId(r *http.Request) string {
	return chi.URLParam(r, "ws")
}

func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handler) sendResponse(w http.ResponseWriter, resp any) {
	h.sendResponseWithStatus(w, http.StatusOK, resp)
}

func (h *Handler) sendResponseWithStatus(w http.ResponseWriter, status int, resp any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func (h *Handler) sendError(w http.ResponseWriter, action string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("%s failed: %v", action, err)
		http.Error(w, "internal error", status)
		return
	}
	http.Error(w, err.Error(), status)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrMessageNotFound),
		errors.Is(err, service.ErrSnippetNotFound):
		return http.StatusNotFound

	case errors.Is(err, service.ErrInvalidWorkspace),
		errors.Is(err, service.ErrInvalidMode),
		errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrInvalidTag),
		errors.Is(err, service.ErrEmptyMessage),
		errors.Is(err, service.ErrEmptySnippet),
		errors.Is(err, service.ErrContentTooLong),
		errors.Is(err, service.ErrEmptyEmail),
		errors.Is(err, service.ErrInvalidEmail):
		return http.StatusBadRequest

	case errors.Is(err, service.ErrNoCurrentSession):
		return http.StatusConflict

	case errors.Is(err, service.ErrInvalidShareLink):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}
