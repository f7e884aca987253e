package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/printcraft/order-workflow-api/internal/models"
	"github.com/printcraft/order-workflow-api/internal/repository"
)

// listDeadLettersHandler lists dead letter messages by status
func (s *Server) listDeadLettersHandler(w http.ResponseWriter, r *http.Request) {
	status := models.DeadLetterStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = models.DeadLetterStatusPending
	}

	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	messages, err := s.deadLetterRepo.GetMessages(r.Context(), status, limit, offset)
	if err != nil {
		s.logger.Error("Failed to list dead letter messages", "error", err)
		s.respondWithError(w, http.StatusInternalServerError, "failed to list dead letter messages")
		return
	}

	total, err := s.deadLetterRepo.Count(r.Context(), status)
	if err != nil {
		s.logger.Error("Failed to count dead letter messages", "error", err)
		s.respondWithError(w, http.StatusInternalServerError, "failed to count dead letter messages")
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data: PaginationResponse{
			Items:  messages,
			Total:  total,
			Limit:  limit,
			Offset: offset,
		},
	})
}

// retryDeadLetterHandler flags a dead letter message for reprocessing
func (s *Server) retryDeadLetterHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, "invalid message id")
		return
	}

	if err := s.deadLetterRepo.MarkForRetry(r.Context(), id); err != nil {
		if err == repository.ErrNotFound {
			s.respondWithError(w, http.StatusNotFound, "pending dead letter message not found")
			return
		}
		s.logger.Error("Failed to mark dead letter message for retry", "error", err, "messageID", id)
		s.respondWithError(w, http.StatusInternalServerError, "failed to mark message for retry")
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    map[string]interface{}{"id": id, "status": "retrying"},
	})
}

// discardDeadLetterHandler permanently discards a dead letter message
func (s *Server) discardDeadLetterHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, "invalid message id")
		return
	}

	if err := s.deadLetterRepo.Discard(r.Context(), id); err != nil {
		if err == repository.ErrNotFound {
			s.respondWithError(w, http.StatusNotFound, "dead letter message not found")
			return
		}
		s.logger.Error("Failed to discard dead letter message", "error", err, "messageID", id)
		s.respondWithError(w, http.StatusInternalServerError, "failed to discard message")
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    map[string]interface{}{"id": id, "status": "discarded"},
	})
}
