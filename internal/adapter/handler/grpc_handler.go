package handler

import (
	"context"

	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/rl1809/order-inventory/internal/core/service"
)

type GRPCHandler struct {
	orderService    *service.OrderService
	shipmentService *service.ShipmentService
}

func NewGRPCHandler(orderService *service.OrderService, shipmentService *service.ShipmentService) *GRPCHandler {
	return &GRPCHandler{orderService: orderService, shipmentService: shipmentService}
}

func (h *GRPCHandler) Reconcile(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	return h.apply(ctx, req.GetValue(), service.EventReconcile)
}

func (h *GRPCHandler) Hold(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	return h.apply(ctx, req.GetValue(), service.EventHold)
}

func (h *GRPCHandler) Release(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	return h.apply(ctx, req.GetValue(), service.EventRelease)
}

func (h *GRPCHandler) Update(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	return h.apply(ctx, req.GetValue(), service.EventUpdate)
}

func (h *GRPCHandler) SubmitLifecycle(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	requestID := fields["request_id"].GetStringValue()
	orderID := fields["order_id"].GetStringValue()
	event := fields["event"].GetStringValue()

	if requestID == "" || orderID == "" || event == "" {
		return failure("missing required fields")
	}

	if err := h.orderService.Submit(ctx, requestID, orderID, service.LifecycleEvent(event)); err != nil {
		_, message := errorStatus(err)
		return failure(message)
	}

	return structpb.NewStruct(map[string]interface{}{
		"success":  true,
		"message":  "event queued",
		"order_id": orderID,
	})
}

func (h *GRPCHandler) TransitionShipments(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	orderID := fields["order_id"].GetStringValue()
	if orderID == "" {
		return failure("missing required fields")
	}

	to, from, err := parseShipmentTransition(fields["state_to"].GetStringValue(), fields["state_from"].GetStringValue())
	if err != nil {
		_, message := errorStatus(err)
		return failure(message)
	}

	changed, err := h.shipmentService.Transition(ctx, orderID, to, from)
	if err != nil {
		_, message := errorStatus(err)
		return failure(message)
	}

	shipments := make([]interface{}, 0, len(changed))
	for _, s := range changed {
		shipments = append(shipments, map[string]interface{}{
			"id":    s.ID,
			"state": string(s.State),
		})
	}

	return structpb.NewStruct(map[string]interface{}{
		"success":   true,
		"message":   "shipments transitioned",
		"order_id":  orderID,
		"shipments": shipments,
	})
}

func (h *GRPCHandler) apply(ctx context.Context, orderID string, event service.LifecycleEvent) (*structpb.Struct, error) {
	if orderID == "" {
		return failure("missing order id")
	}

	order, err := h.orderService.Apply(ctx, orderID, event)
	if err != nil {
		_, message := errorStatus(err)
		return failure(message)
	}

	units := make([]interface{}, 0, len(order.InventoryUnits()))
	for _, u := range order.InventoryUnits() {
		units = append(units, map[string]interface{}{
			"id":         u.ID,
			"variant_id": string(u.Variant),
			"state":      string(u.State),
		})
	}

	return structpb.NewStruct(map[string]interface{}{
		"success":  true,
		"message":  string(event) + " applied",
		"order_id": orderID,
		"units":    units,
	})
}

func failure(message string) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"success": false,
		"message": message,
	})
}
