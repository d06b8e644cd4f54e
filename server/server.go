// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package server exposes the question-answering engine over HTTP.
//
// The API is a small JSON surface:
//
//	POST /api/v1/chat    {"message": "..."} -> grounded answer with sources
//	GET  /api/v1/health  liveness probe
//
// Responses use a status envelope: {"status": "success", "data": {...}} or
// {"status": "error", "error": "..."}.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/poiesic/podsight/qa"
)

// Asker answers questions. Satisfied by *qa.Engine.
type Asker interface {
	Ask(ctx context.Context, question string) (*qa.Result, error)
}

// Version is reported by the health endpoint.
const Version = "0.1.0"

// Config holds HTTP server settings.
type Config struct {
	// Addr is the listen address. Default: ":8080"
	Addr string

	// RequestTimeout bounds handler execution. Default: 60s
	RequestTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Addr:           ":8080",
		RequestTimeout: 60 * time.Second,
	}
}

// Server serves the QA API.
type Server struct {
	asker  Asker
	config *Config
	logger *slog.Logger
}

// NewServer creates an HTTP server around a QA engine.
func NewServer(asker Asker, config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	return &Server{
		asker:  asker,
		config: config,
		logger: slog.Default().With("component", "http-server"),
	}
}

// Handler returns the routed HTTP handler, wrapped with request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/chat", s.handleChat)
	mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	return s.logRequests(mux)
}

// ListenAndServe runs the server until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: s.config.RequestTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.config.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatData struct {
	Response       string       `json:"response"`
	Found          bool         `json:"found"`
	Sources        []sourceData `json:"sources,omitempty"`
	ProcessingTime float64      `json:"processing_time"`
}

type sourceData struct {
	EpisodeId string  `json:"episode_id"`
	Title     string  `json:"title"`
	Score     float32 `json:"score"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.config.RequestTimeout)
	defer cancel()

	start := time.Now()
	result, err := s.asker.Ask(ctx, req.Message)
	if err != nil {
		s.logger.Error("chat request failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to answer question")
		return
	}

	data := chatData{
		Response:       result.Answer,
		Found:          result.Found,
		ProcessingTime: time.Since(start).Seconds(),
	}
	for _, source := range result.Sources {
		data.Sources = append(data.Sources, sourceData{
			EpisodeId: source.EpisodeId,
			Title:     source.Title,
			Score:     source.Score,
		})
	}
	writeSuccess(w, data)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, map[string]string{"service": "podsight", "version": Version})
}

// statusRecorder captures the response code for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.status,
			"duration", time.Since(start))
	})
}

type envelope struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
}

func writeSuccess(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(envelope{Status: "success", Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Status: "error", Error: message})
}
