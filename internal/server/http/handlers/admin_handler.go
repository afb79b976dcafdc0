package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/eventreg/internal/server/http/dto"
)

// AdminHandler exposes staff operations. Routes are guarded by AdminRequired.
type AdminHandler struct {
	facade AdminFacade
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(facade AdminFacade) *AdminHandler {
	return &AdminHandler{facade: facade}
}

// Settle handles POST /api/admin/orders/:id/settle.
func (h *AdminHandler) Settle(c *gin.Context) {
	orderID, err := pathID(c, "id")
	if err != nil {
		writeBadRequest(c, err)
		return
	}
	var req dto.SettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}
	order, err := h.facade.SettleOrder(c.Request.Context(), CurrentPrincipal(c), orderID, req.Amount, req.Reference)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(*order))
}

// Refund handles POST /api/admin/orders/:id/items/:item/refund.
func (h *AdminHandler) Refund(c *gin.Context) {
	orderID, err := pathID(c, "id")
	if err != nil {
		writeBadRequest(c, err)
		return
	}
	itemID, err := pathID(c, "item")
	if err != nil {
		writeBadRequest(c, err)
		return
	}
	item, err := h.facade.RefundItem(c.Request.Context(), CurrentPrincipal(c), orderID, itemID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderItemResponse(*item))
}

// AutoAssignRoster handles POST /api/admin/events/:id/roster/auto-assign.
func (h *AdminHandler) AutoAssignRoster(c *gin.Context) {
	eventID, err := pathID(c, "id")
	if err != nil {
		writeBadRequest(c, err)
		return
	}
	replace := false
	if raw := c.Query("replace"); raw != "" {
		if replace, err = strconv.ParseBool(raw); err != nil {
			writeBadRequest(c, err)
			return
		}
	}
	result, err := h.facade.AutoAssignRoster(c.Request.Context(), CurrentPrincipal(c), eventID, replace)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := dto.RosterResponse{
		AssignedCount:   result.AssignedCount,
		UnassignedCount: result.UnassignedCount,
		Distribution:    make([]dto.ParticipantLoad, 0, len(result.Distribution)),
		Assignments:     make([]dto.SlotAssignment, 0, len(result.Assignments)),
	}
	for _, d := range result.Distribution {
		resp.Distribution = append(resp.Distribution, dto.ParticipantLoad{AttendeeID: d.AttendeeID, Slots: d.Slots})
	}
	for _, a := range result.Assignments {
		resp.Assignments = append(resp.Assignments, dto.SlotAssignment{SlotID: a.SlotID, AttendeeID: a.AttendeeID})
	}
	c.JSON(http.StatusOK, resp)
}
