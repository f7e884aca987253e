package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/printcraft/order-workflow-api/internal/catalog"
)

// listStagesHandler returns the active production stage catalog
func (s *Server) listStagesHandler(w http.ResponseWriter, r *http.Request) {
	entries, err := s.catalogService.Entries(r.Context())
	if err != nil {
		s.respondWithServiceError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    entries,
	})
}

func (s *Server) addStageHandler(w http.ResponseWriter, r *http.Request) {
	var entry catalog.Entry

	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entries, err := s.catalogService.Add(r.Context(), entry)
	if err != nil {
		s.respondWithServiceError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusCreated, ApiResponse{
		Success: true,
		Data:    entries,
	})
}

// removeStageHandler removes a stage from the catalog. Items already
// carrying the stage in their frozen sequence are untouched.
func (s *Server) removeStageHandler(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	entries, err := s.catalogService.Remove(r.Context(), key)
	if err != nil {
		s.respondWithServiceError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    entries,
	})
}

func (s *Server) replaceStagesHandler(w http.ResponseWriter, r *http.Request) {
	var entries []catalog.Entry

	if err := json.NewDecoder(r.Body).Decode(&entries); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := s.catalogService.Replace(r.Context(), entries)
	if err != nil {
		s.respondWithServiceError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    updated,
	})
}
