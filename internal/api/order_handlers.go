package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/printcraft/order-workflow-api/internal/service"
)

func (s *Server) createOrderHandler(w http.ResponseWriter, r *http.Request) {
	var input service.CreateOrderInput

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := s.orderService.CreateOrder(r.Context(), input)
	if err != nil {
		s.respondWithServiceError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusCreated, ApiResponse{
		Success: true,
		Data:    order,
	})
}

func (s *Server) getOrderHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	order, err := s.orderService.GetOrder(r.Context(), id)
	if err != nil {
		s.respondWithServiceError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    order,
	})
}

func (s *Server) listOrdersHandler(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	orders, total, err := s.orderService.ListOrders(r.Context(), limit, offset)
	if err != nil {
		s.respondWithServiceError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data: PaginationResponse{
			Items:  orders,
			Total:  total,
			Limit:  limit,
			Offset: offset,
		},
	})
}

func (s *Server) completeOrderHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := s.orderService.CompleteOrder(r.Context(), id); err != nil {
		s.respondWithServiceError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    map[string]string{"id": id, "status": "completed"},
	})
}

func (s *Server) deleteOrderHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := s.orderService.DeleteOrder(r.Context(), id); err != nil {
		s.respondWithServiceError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    map[string]string{"id": id, "status": "deleted"},
	})
}

// trackOrderHandler serves the public tracking feed for an order
// number. No authentication; only public fields appear.
func (s *Server) trackOrderHandler(w http.ResponseWriter, r *http.Request) {
	number := mux.Vars(r)["number"]

	view, err := s.orderService.TrackOrder(r.Context(), number)
	if err != nil {
		s.respondWithServiceError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    view,
	})
}

func (s *Server) getItemHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	item, err := s.orderService.GetItem(r.Context(), id)
	if err != nil {
		s.respondWithServiceError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    item,
	})
}

// departmentItemsHandler serves a department's work queue
func (s *Server) departmentItemsHandler(w http.ResponseWriter, r *http.Request) {
	dept := mux.Vars(r)["department"]
	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	items, err := s.orderService.ListItemsByDepartment(r.Context(), dept, limit, offset)
	if err != nil {
		s.respondWithServiceError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    items,
	})
}

func parseIntQuery(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return value
}
