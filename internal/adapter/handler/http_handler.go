package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rl1809/order-inventory/internal/core/domain"
	"github.com/rl1809/order-inventory/internal/core/service"
)

type HTTPHandler struct {
	orderService    *service.OrderService
	shipmentService *service.ShipmentService
}

type LifecycleHTTPRequest struct {
	RequestID string `json:"request_id"`
	OrderID   string `json:"order_id"`
	Event     string `json:"event"`
}

type ShipmentTransitionHTTPRequest struct {
	StateTo   string `json:"state_to"`
	StateFrom string `json:"state_from,omitempty"`
}

type InventoryUnitView struct {
	ID      string `json:"id"`
	Variant string `json:"variant_id"`
	State   string `json:"state"`
}

type ShipmentView struct {
	ID    string `json:"id"`
	State string `json:"state"`
}

type HTTPResponse struct {
	Success   bool                `json:"success"`
	Message   string              `json:"message"`
	OrderID   string              `json:"order_id,omitempty"`
	Units     []InventoryUnitView `json:"units,omitempty"`
	Shipments []ShipmentView      `json:"shipments,omitempty"`
}

func NewHTTPHandler(orderService *service.OrderService, shipmentService *service.ShipmentService) *HTTPHandler {
	return &HTTPHandler{orderService: orderService, shipmentService: shipmentService}
}

func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.HealthCheck)
	mux.HandleFunc("POST /api/lifecycle", h.SubmitLifecycle)
	mux.HandleFunc("POST /api/orders/{id}/lifecycle/{event}", h.ApplyLifecycle)
	mux.HandleFunc("POST /api/orders/{id}/shipments/transition", h.TransitionShipments)
}

// ApplyLifecycle runs the event synchronously and returns the resulting units.
func (h *HTTPHandler) ApplyLifecycle(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("id")

	event, err := service.ParseLifecycleEvent(r.PathValue("event"))
	if err != nil {
		writeError(w, err)
		return
	}

	order, err := h.orderService.Apply(r.Context(), orderID, event)
	if err != nil {
		writeError(w, err)
		return
	}

	units := order.InventoryUnits()
	views := make([]InventoryUnitView, 0, len(units))
	for _, u := range units {
		views = append(views, InventoryUnitView{ID: u.ID, Variant: string(u.Variant), State: string(u.State)})
	}

	writeJSON(w, http.StatusOK, HTTPResponse{
		Success: true,
		Message: string(event) + " applied",
		OrderID: orderID,
		Units:   views,
	})
}

// SubmitLifecycle queues the event for the workers.
func (h *HTTPHandler) SubmitLifecycle(w http.ResponseWriter, r *http.Request) {
	var req LifecycleHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, HTTPResponse{
			Success: false,
			Message: "invalid request body",
		})
		return
	}

	if req.RequestID == "" || req.OrderID == "" || req.Event == "" {
		writeJSON(w, http.StatusBadRequest, HTTPResponse{
			Success: false,
			Message: "missing required fields",
		})
		return
	}

	if err := h.orderService.Submit(r.Context(), req.RequestID, req.OrderID, service.LifecycleEvent(req.Event)); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, HTTPResponse{
		Success: true,
		Message: "event queued",
		OrderID: req.OrderID,
	})
}

func (h *HTTPHandler) TransitionShipments(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("id")

	var req ShipmentTransitionHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, HTTPResponse{
			Success: false,
			Message: "invalid request body",
		})
		return
	}

	to, from, err := parseShipmentTransition(req.StateTo, req.StateFrom)
	if err != nil {
		writeError(w, err)
		return
	}

	changed, err := h.shipmentService.Transition(r.Context(), orderID, to, from)
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]ShipmentView, 0, len(changed))
	for _, s := range changed {
		views = append(views, ShipmentView{ID: s.ID, State: string(s.State)})
	}

	writeJSON(w, http.StatusOK, HTTPResponse{
		Success:   true,
		Message:   "shipments transitioned",
		OrderID:   orderID,
		Shipments: views,
	})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// parseShipmentTransition treats an empty from as unguarded.
func parseShipmentTransition(stateTo, stateFrom string) (to, from domain.ShipmentState, err error) {
	if to, err = domain.ParseShipmentState(stateTo); err != nil {
		return "", "", err
	}
	if stateFrom == "" {
		return to, domain.AnyShipmentState, nil
	}
	if from, err = domain.ParseShipmentState(stateFrom); err != nil {
		return "", "", err
	}
	return to, from, nil
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		return http.StatusNotFound, "order not found"
	case errors.Is(err, service.ErrDuplicateRequest):
		return http.StatusConflict, "duplicate request"
	case errors.Is(err, domain.ErrOptimisticLock):
		return http.StatusConflict, "concurrent update, retry"
	case errors.Is(err, service.ErrUnknownEvent):
		return http.StatusBadRequest, "unknown lifecycle event"
	case errors.Is(err, domain.ErrUnknownState):
		return http.StatusBadRequest, "unknown state"
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest, "invalid argument"
	}
	return http.StatusInternalServerError, "internal error"
}

func writeError(w http.ResponseWriter, err error) {
	status, message := errorStatus(err)
	writeJSON(w, status, HTTPResponse{
		Success: false,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
