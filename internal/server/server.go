// Package server exposes the question pipeline as a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/sawaliram/sawaliram/internal/pipeline"
	"github.com/sawaliram/sawaliram/internal/storage"
)

// maxUploadBytes bounds the in-memory part of a multipart upload.
const maxUploadBytes = 32 << 20

// Server is the HTTP API server.
type Server struct {
	engine *pipeline.Engine
	store  *storage.Root
	secret string
	logger *zap.Logger
	router *mux.Router
}

// New creates a server. secret signs and verifies caller tokens.
func New(engine *pipeline.Engine, store *storage.Root, secret string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{engine: engine, store: store, secret: secret, logger: logger, router: mux.NewRouter()}
	s.routes()
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)

	// Open endpoints
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/v1/datasets/validate", s.handleValidate).Methods(http.MethodPost)

	// Everything else needs a caller
	v1 := r.PathPrefix("/v1").Subrouter()
	v1.Use(s.authMiddleware)

	v1.HandleFunc("/datasets/raw", s.handleSubmitRaw).Methods(http.MethodPost)
	v1.HandleFunc("/datasets/curated", s.handleSubmitCurated).Methods(http.MethodPost)
	v1.HandleFunc("/datasets/encoded", s.handleSubmitEncoded).Methods(http.MethodPost)
	v1.HandleFunc("/answers", s.handleSubmitAnswer).Methods(http.MethodPost)

	v1.HandleFunc("/questions", s.handleListQuestions).Methods(http.MethodGet)
	v1.HandleFunc("/questions/unanswered", s.handleListUnanswered).Methods(http.MethodGet)
	v1.HandleFunc("/questions/{id:[0-9]+}", s.handleGetQuestion).Methods(http.MethodGet)

	v1.HandleFunc("/submissions/uncurated", s.handlePendingCuration).Methods(http.MethodGet)
	v1.HandleFunc("/submissions/unencoded", s.handlePendingEncoding).Methods(http.MethodGet)
	v1.HandleFunc("/artifacts/{stage}/{name}", s.handleArtifact).Methods(http.MethodGet)
	v1.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
