package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/handlers"

	"github.com/Powerisinschool/edupane-backend/internal/chat"
	"github.com/Powerisinschool/edupane-backend/internal/config"
	"github.com/Powerisinschool/edupane-backend/internal/database"
)

// EdupaneApp is the HTTP surface in front of the chat core: the
// websocket entry point plus health and metrics. CRUD endpoints and
// token issuance live in other services.
type EdupaneApp struct {
	log            *log.Logger
	db             database.EdupaneRepository
	srv            *http.Server
	cs             *chat.ChatServer
	signingKey     []byte
	allowedOrigins []string
}

func NewEdupaneApp(mux *http.ServeMux, logger *log.Logger, cs *chat.ChatServer, db database.EdupaneRepository, cfg *config.Config) *EdupaneApp {
	s := &EdupaneApp{
		log:            logger,
		db:             db,
		cs:             cs,
		signingKey:     cfg.SigningKey,
		allowedOrigins: cfg.AllowedOrigins,
	}

	mux.HandleFunc("GET /ws/chat/{room_id}", s.identityMiddleware(s.serveWs))
	mux.HandleFunc("GET /healthz", s.health)

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept"}),
		handlers.AllowCredentials(),
	)(mux)

	h = s.errorHandler(h)

	s.srv = &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	return s
}

func (s *EdupaneApp) Start() error {
	s.log.Printf("starting server on %s\n", s.srv.Addr)
	return s.srv.ListenAndServe()
}

func (s *EdupaneApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
