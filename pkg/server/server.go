// Package server exposes the journal over a JSON HTTP API.
package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"droscher.com/BeanJournal/pkg/integrity"
	"droscher.com/BeanJournal/pkg/journal"
	"droscher.com/BeanJournal/pkg/storage"
)

var ErrBadRequest = errors.New("bad request")

type JournalServer struct {
	journal *journal.Service
	logger  *zap.Logger
}

func NewJournalServer(service *journal.Service, logger *zap.Logger) *JournalServer {
	return &JournalServer{journal: service, logger: logger}
}

// Handler returns every API route wrapped in request logging.
func (s *JournalServer) Handler() http.Handler {
	mux := http.NewServeMux()

	s.registerLookupRoutes(mux)
	s.registerProductRoutes(mux)
	s.registerBatchRoutes(mux)
	s.registerBrewSessionRoutes(mux)

	return s.logRequests(mux)
}

type handlerFunc func(w http.ResponseWriter, r *http.Request) error

func (s *JournalServer) handle(mux *http.ServeMux, pattern string, handler handlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		if err := handler(w, r); err != nil {
			s.writeError(w, r, err)
		}
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, journal.ErrValidation),
		errors.Is(err, integrity.ErrInvalidAction),
		errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, journal.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *JournalServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	message := err.Error()

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Bool("corrupt", errors.Is(err, storage.ErrCorrupt)),
			zap.Error(err))

		message = "internal server error"
	}

	s.writeJSON(w, status, errorResponse{Error: message})
}

func (s *JournalServer) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("error writing response", zap.Error(err))
	}
}

func decode(r *http.Request, target any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return fmt.Errorf("%w: no data provided", ErrBadRequest)
	}

	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %w", ErrBadRequest, err)
	}

	return nil
}

func pathID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", ErrBadRequest, r.PathValue("id"))
	}

	return id, nil
}
