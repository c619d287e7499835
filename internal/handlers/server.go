package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"flick/internal/config"
	"flick/internal/metrics"
	"flick/internal/utils"

	"github.com/gorilla/mux"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	config     *config.Config
	logger     *utils.Logger
	metrics    *metrics.Metrics
	httpServer *http.Server
	apiHandler *APIHandler
}

func NewServer(cfg *config.Config, streamer Streamer, m *metrics.Metrics, logger *utils.Logger) *Server {
	s := &Server{
		config:     cfg,
		logger:     logger,
		metrics:    m,
		apiHandler: NewAPIHandler(streamer, logger),
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.Router(),
		ReadTimeout:  cfg.App.ReadTimeout,
		WriteTimeout: cfg.App.WriteTimeout,
	}

	return s
}

func (s *Server) Router() http.Handler {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "Not Found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	// Probes stay out of the access log
	router.HandleFunc("/healthz", s.apiHandler.Health).Methods("GET")
	router.Handle("/metrics", s.metrics.Handler()).Methods("GET")

	// Stream routes
	api := router.NewRoute().Subrouter()
	api.Use(requestIDMiddleware, s.accessLogMiddleware, s.recoverMiddleware)

	api.HandleFunc("/scrape", s.apiHandler.ScrapeEmbed).Methods("GET")
	api.HandleFunc("/movies/all/{id}", s.apiHandler.GetMovieStreamsAllSources).Methods("GET")
	api.HandleFunc("/movies/{id}", s.apiHandler.GetMovieStreams).Methods("GET")
	api.HandleFunc("/tv/{id}", s.apiHandler.GetTVStreams).Methods("GET")
	api.HandleFunc("/status", s.apiHandler.GetSystemStatus).Methods("GET")

	return router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.logger.Info("Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Failed to shut down HTTP server gracefully:", err)
		}
	}()

	s.logger.Info("Starting server on", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	return nil
}
