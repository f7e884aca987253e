package api

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/printcraft/order-workflow-api/pkg/errors"
)

// ApiResponse is the standard response envelope
type ApiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// PaginationResponse wraps a paginated list
type PaginationResponse struct {
	Items  interface{} `json:"items"`
	Total  int         `json:"total"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

func (s *Server) respondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("Failed to marshal response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

func (s *Server) respondWithError(w http.ResponseWriter, status int, message string) {
	s.respondWithJSON(w, status, ApiResponse{
		Success: false,
		Error:   message,
	})
}

// respondWithServiceError maps domain errors to HTTP statuses
func (s *Server) respondWithServiceError(w http.ResponseWriter, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		s.respondWithError(w, appErr.StatusCode, appErr.Error())
		return
	}

	var transitionErr *apperrors.InvalidTransitionError
	if errors.As(err, &transitionErr) {
		s.respondWithError(w, http.StatusUnprocessableEntity, transitionErr.Error())
		return
	}

	var missingErr *apperrors.MissingReferenceError
	if errors.As(err, &missingErr) {
		s.respondWithError(w, http.StatusBadRequest, missingErr.Error())
		return
	}

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		s.respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, apperrors.ErrInvalidInput):
		s.respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperrors.ErrConflict):
		s.respondWithError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error("Unhandled service error", "error", err)
		s.respondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

// healthCheckHandler reports service and database health
func (s *Server) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(r.Context()); err != nil {
		s.respondWithJSON(w, http.StatusServiceUnavailable, ApiResponse{
			Success: false,
			Error:   "database unreachable",
		})
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data: map[string]string{
			"status": "healthy",
		},
	})
}
