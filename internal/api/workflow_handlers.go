package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/printcraft/order-workflow-api/internal/workflow"
)

// actionRequest is the body for performing a workflow action
type actionRequest struct {
	ActorID   string           `json:"actor_id"`
	ActorName string           `json:"actor_name"`
	Role      workflow.Role    `json:"role"`
	Note      string           `json:"note,omitempty"`
	Payload   workflow.Payload `json:"payload,omitempty"`
}

// availableActionsHandler returns the legal actions for an item as
// seen by the requesting role
func (s *Server) availableActionsHandler(w http.ResponseWriter, r *http.Request) {
	itemID := mux.Vars(r)["id"]
	role := workflow.Role(r.URL.Query().Get("role"))

	actions, err := s.workflowService.AvailableActions(r.Context(), itemID, role)
	if err != nil {
		s.respondWithServiceError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    actions,
	})
}

// performActionHandler executes a workflow action against an item.
// The action is re-validated server-side against fresh state; a stale
// action list from the client is rejected, not trusted.
func (s *Server) performActionHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	itemID := vars["id"]
	actionID := workflow.ActionID(vars["action"])

	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	actor := workflow.Actor{
		ID:   req.ActorID,
		Name: req.ActorName,
		Role: req.Role,
	}

	result, err := s.workflowService.PerformAction(r.Context(), itemID, actionID, actor, req.Note, req.Payload)
	if err != nil {
		s.respondWithServiceError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    result.Item,
	})
}

// overrideRequest is the body for an admin override
type overrideRequest struct {
	ActorID   string                 `json:"actor_id"`
	ActorName string                 `json:"actor_name"`
	Role      workflow.Role          `json:"role"`
	Note      string                 `json:"note,omitempty"`
	Patch     workflow.OverridePatch `json:"patch"`
}

func (s *Server) adminOverrideHandler(w http.ResponseWriter, r *http.Request) {
	itemID := mux.Vars(r)["id"]

	var req overrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	actor := workflow.Actor{
		ID:   req.ActorID,
		Name: req.ActorName,
		Role: req.Role,
	}

	result, err := s.workflowService.AdminOverride(r.Context(), itemID, req.Patch, actor, req.Note)
	if err != nil {
		s.respondWithServiceError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    result.Item,
	})
}

// itemTimelineHandler returns an item's timeline, oldest first.
// ?public=true restricts to customer-visible entries.
func (s *Server) itemTimelineHandler(w http.ResponseWriter, r *http.Request) {
	itemID := mux.Vars(r)["id"]
	publicOnly := r.URL.Query().Get("public") == "true"

	entries, err := s.workflowService.ItemTimeline(r.Context(), itemID, publicOnly)
	if err != nil {
		s.respondWithServiceError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    entries,
	})
}

func (s *Server) removeTimelineEntryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["entryID"], 10, 64)
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, "invalid timeline entry id")
		return
	}

	if err := s.workflowService.RemoveTimelineEntry(r.Context(), id); err != nil {
		s.respondWithServiceError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    map[string]interface{}{"id": id, "status": "removed"},
	})
}
