package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/eventreg/internal/domain/model"
	"github.com/polkiloo/eventreg/internal/server/http/dto"
)

// OrderHandler manages order-related endpoints.
type OrderHandler struct {
	facade OrderFacade
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(facade OrderFacade) *OrderHandler {
	return &OrderHandler{facade: facade}
}

// List handles GET /api/orders.
func (h *OrderHandler) List(c *gin.Context) {
	principal := CurrentPrincipal(c)
	orders, err := h.facade.Orders(c.Request.Context(), principal.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	if len(orders) == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	response := make([]dto.OrderResponse, 0, len(orders))
	for _, o := range orders {
		response = append(response, toOrderResponse(o))
	}

	c.JSON(http.StatusOK, response)
}

// Get handles GET /api/orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	orderID, err := pathID(c, "id")
	if err != nil {
		writeBadRequest(c, err)
		return
	}
	order, err := h.facade.Order(c.Request.Context(), CurrentPrincipal(c), orderID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(*order))
}

// Cancel handles DELETE /api/orders/:id.
func (h *OrderHandler) Cancel(c *gin.Context) {
	orderID, err := pathID(c, "id")
	if err != nil {
		writeBadRequest(c, err)
		return
	}
	if err := h.facade.CancelOrder(c.Request.Context(), CurrentPrincipal(c), orderID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func toOrderResponse(order model.Order) dto.OrderResponse {
	resp := dto.OrderResponse{
		ID:        order.ID,
		EventID:   order.EventID,
		Total:     order.Total,
		Status:    string(order.Status),
		CreatedAt: order.CreatedAt,
	}
	for _, item := range order.Items {
		resp.Items = append(resp.Items, toOrderItemResponse(item))
	}
	return resp
}

func toOrderItemResponse(item model.OrderItem) dto.OrderItemResponse {
	return dto.OrderItemResponse{
		ID:         item.ID,
		AttendeeID: item.AttendeeID,
		Kind:       string(item.Kind),
		RefID:      item.RefID,
		Price:      item.Price,
		RefundedAt: item.RefundedAt,
	}
}
