package server

import (
	"net/http"

	"github.com/escience/sitebot/internal/api"
	"github.com/escience/sitebot/internal/api/handlers"
	"github.com/escience/sitebot/internal/api/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

const maxBodyBytes int64 = 5 * 1024 * 1024

type RouterConfig struct {
	SessionValidator middleware.SessionValidator
	ChatHandler      *handlers.ChatHandler
	KnowledgeHandler *handlers.KnowledgeHandler
	ChatsHandler     *handlers.ChatsHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", cfg.ChatHandler.Chat)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(cfg.SessionValidator))

			r.Route("/knowledge", func(r chi.Router) {
				r.Get("/", cfg.KnowledgeHandler.List)
				r.Post("/upload", cfg.KnowledgeHandler.Upload)
				r.Delete("/", cfg.KnowledgeHandler.Delete)
				r.Delete("/{id}", cfg.KnowledgeHandler.Delete)
			})

			r.Get("/chats", cfg.ChatsHandler.List)
		})
	})

	return r
}
