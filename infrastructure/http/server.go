// Package http is the thin shell over the session core: routing, token
// authentication, JSON translation and the live event stream.
package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"unicomm/auth"
	"unicomm/contract"
	"unicomm/observability"
)

var _ contract.Worker = (*Server)(nil)

// Server wraps the chi mux in a supervised worker with graceful
// shutdown tied to the context.
type Server struct {
	log  *slog.Logger
	addr string
	mux  *chi.Mux
}

func NewServer(log *slog.Logger, addr string, handler *Handler,
	tokens *auth.TokenManager, registry contract.IRegistry,
	monitoring *observability.MonitoringManager) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Post("/api/register", handler.Register)
	r.Post("/api/login", handler.Login)
	r.Get("/api/status", handler.Status)

	r.Group(func(r chi.Router) {
		r.Use(Authenticator(tokens))

		r.Get("/api/events", EventStream(registry, monitoring))

		r.Route("/api/contacts", func(r chi.Router) {
			r.Get("/", handler.ListContacts)
			r.Post("/", handler.AddContact)
			r.Put("/{id}", handler.UpdateContact)
			r.Delete("/{id}", handler.RemoveContact)
		})

		r.Route("/api/chats", func(r chi.Router) {
			r.Get("/", handler.ListChats)
			r.Post("/direct", handler.CreateDirectChat)
			r.Post("/group", handler.CreateGroupChat)
			r.Get("/{id}/messages", handler.ListMessages)
			r.Post("/{id}/messages", handler.PostMessage)
		})

		r.Route("/api/calls", func(r chi.Router) {
			r.Post("/", handler.InitiateCall)
			r.Post("/{id}/event", handler.CallEvent)
		})

		r.Post("/api/sms", handler.SendSMS)

		r.Route("/api/voicemails", func(r chi.Router) {
			r.Get("/", handler.ListVoicemails)
			r.Post("/{id}/read", handler.MarkVoicemailRead)
			r.Delete("/{id}", handler.DeleteVoicemail)
		})

		r.Route("/api/admin/users", func(r chi.Router) {
			r.Get("/", handler.ListUsers)
			r.Post("/{id}/role", handler.SetRole)
			r.Post("/{id}/deactivate", handler.DeactivateUser)
		})
	})

	return &Server{log: log, addr: addr, mux: r}
}

// Run serves until the context is cancelled, then drains in-flight
// requests for up to ten seconds.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.mux}

	errChan := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server listening", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
