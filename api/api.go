package api

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/zlnvch/cocreate/api/rest"
	"github.com/zlnvch/cocreate/api/ws"
	"github.com/zlnvch/cocreate/mq"
	"github.com/zlnvch/cocreate/persona"
	"github.com/zlnvch/cocreate/pubsub"
	"github.com/zlnvch/cocreate/service"
	"github.com/zlnvch/cocreate/store"
	"github.com/zlnvch/cocreate/worker"
)

type CocreateAPI struct {
	Service     *service.Service
	restHandler *rest.Handler
	wsHandler   *ws.Handler
	shutdownCtx context.Context
}

func NewCocreateAPI(
	kvStore store.KVStore,
	replyQueue mq.MessageQueue,
	broker pubsub.Broker,
	shareSecret []byte,
	replyDelay time.Duration,
	shutdownCtx context.Context,
) (*CocreateAPI, error) {
	svc, err := service.NewService(
		kvStore,
		replyQueue,
		broker,
		persona.NewResponder(nil),
		shareSecret,
		replyDelay,
	)
	if err != nil {
		log.Printf("Failed to create service: %v", err)
		return &CocreateAPI{}, err
	}

	wsHub := ws.NewHub(broker)
	go wsHub.Run(shutdownCtx)

	replyConsumer := worker.NewReplyConsumer(replyQueue, svc)
	go replyConsumer.Run(shutdownCtx)

	restHandler := rest.NewHandler(svc)
	wsHandler := ws.NewHandler(svc, wsHub)

	return &CocreateAPI{
		Service:     svc,
		restHandler: restHandler,
		wsHandler:   wsHandler,
		shutdownCtx: shutdownCtx,
	}, nil
}

func (cocreateAPI *CocreateAPI) RegisterRoutes(r chi.Router, allowedOrigin string) {
	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	restHandler := cocreateAPI.restHandler
	r.Get("/personas", restHandler.HandlePersonas)
	r.Get("/share/{token}", restHandler.HandleResolveShareLink)

	r.Route("/workspaces/{ws}", func(r chi.Router) {
		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", restHandler.HandleListSessions)
			r.Post("/", restHandler.HandleCreateSession)
			r.Post("/bulk-delete", restHandler.HandleBulkDelete)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", restHandler.HandleGetSession)
				r.Delete("/", restHandler.HandleDeleteSession)
				r.Post("/select", restHandler.HandleSelectSession)
				r.Put("/messages", restHandler.HandleSetMessages)
				r.Post("/messages/{messageId}/snippet", restHandler.HandleSaveMessageSnippet)
				r.Post("/favorite", restHandler.HandleToggleFavorite)
				r.Put("/tags", restHandler.HandleSetTags)
				r.Put("/mode", restHandler.HandleSetMode)
				r.Post("/share", restHandler.HandleCreateShareLink)
			})
		})

		r.Post("/chat", restHandler.HandleChat)

		r.Get("/snippets", restHandler.HandleListSnippets)
		r.Post("/snippets", restHandler.HandleAddSnippet)
		r.Delete("/snippets/{id}", restHandler.HandleDeleteSnippet)

		r.Get("/preferences", restHandler.HandleGetPreferences)
		r.Post("/preferences/visited", restHandler.HandleMarkVisited)
		r.Put("/preferences/dark-mode", restHandler.HandleSetDarkMode)
		r.Post("/preferences/onboarding", restHandler.HandleOnboarding)
		r.Delete("/preferences/onboarding", restHandler.HandleOnboarding)

		r.Post("/invite", restHandler.HandleInvite)
		r.Get("/collaborators", restHandler.HandleCollaborators)
		r.Get("/whiteboard.png", restHandler.HandleExportWhiteboard)

		wsUpgrader := cocreateAPI.wsHandler.NewWsUpgrader(allowedOrigin)
		r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
			cocreateAPI.wsHandler.ServeWS(wsUpgrader, w, r, cocreateAPI.shutdownCtx)
		})
	})
}
