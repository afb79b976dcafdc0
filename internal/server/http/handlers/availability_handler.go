package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/eventreg/internal/domain/model"
	"github.com/polkiloo/eventreg/internal/server/http/dto"
)

// AvailabilityHandler serves public availability lookups.
type AvailabilityHandler struct {
	facade AvailabilityFacade
}

// NewAvailabilityHandler constructs AvailabilityHandler.
func NewAvailabilityHandler(facade AvailabilityFacade) *AvailabilityHandler {
	return &AvailabilityHandler{facade: facade}
}

// Campsite handles GET /api/availability/campsites/:id.
func (h *AvailabilityHandler) Campsite(c *gin.Context) {
	campsiteID, stay, ok := stayQuery(c)
	if !ok {
		return
	}
	available, err := h.facade.CampsiteAvailability(c.Request.Context(), campsiteID, stay)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CampsiteAvailabilityResponse{
		CampsiteID: campsiteID,
		CheckIn:    stay.CheckIn.Format(model.DateLayout),
		CheckOut:   stay.CheckOut.Format(model.DateLayout),
		Available:  available,
	})
}

// Asset handles GET /api/availability/assets/:id.
func (h *AvailabilityHandler) Asset(c *gin.Context) {
	assetTypeID, stay, ok := stayQuery(c)
	if !ok {
		return
	}
	itemID, available, err := h.facade.AssetAvailability(c.Request.Context(), assetTypeID, stay)
	if err != nil {
		writeError(c, err)
		return
	}
	resp := dto.AssetAvailabilityResponse{
		AssetTypeID: assetTypeID,
		CheckIn:     stay.CheckIn.Format(model.DateLayout),
		CheckOut:    stay.CheckOut.Format(model.DateLayout),
		Available:   available,
	}
	if available {
		resp.ItemID = &itemID
	}
	c.JSON(http.StatusOK, resp)
}

func stayQuery(c *gin.Context) (int64, model.DateRange, bool) {
	id, err := pathID(c, "id")
	if err != nil {
		writeBadRequest(c, err)
		return 0, model.DateRange{}, false
	}
	stay, err := model.ParseDateRange(c.Query("check_in"), c.Query("check_out"))
	if err != nil {
		writeError(c, err)
		return 0, model.DateRange{}, false
	}
	return id, stay, true
}
