package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/eventreg/internal/domain/model"
	"github.com/polkiloo/eventreg/internal/server/http/dto"
)

// IdempotencyKeyHeader carries the client's retry key for checkout.
const IdempotencyKeyHeader = "Idempotency-Key"

// CheckoutHandler commits carts for the authenticated buyer.
type CheckoutHandler struct {
	facade CheckoutFacade
}

// NewCheckoutHandler constructs CheckoutHandler.
func NewCheckoutHandler(facade CheckoutFacade) *CheckoutHandler {
	return &CheckoutHandler{facade: facade}
}

// Checkout handles POST /api/checkout.
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}

	cart, err := toCart(req)
	if err != nil {
		writeError(c, err)
		return
	}

	result, err := h.facade.Checkout(c.Request.Context(), CurrentPrincipal(c), cart, c.GetHeader(IdempotencyKeyHeader))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toCheckoutResponse(result))
}

// toCart keeps the wire grouping, which already matches the order lines are processed in.
func toCart(req dto.CheckoutRequest) (model.Cart, error) {
	cart := model.Cart{EventID: req.EventID}
	for _, t := range req.Tickets {
		line := model.TicketLine{TicketTypeID: t.TicketTypeID, Quantity: t.Quantity}
		for _, a := range t.Attendees {
			line.Attendees = append(line.Attendees, model.AttendeeDetails{FirstName: a.FirstName, LastName: a.LastName, Email: a.Email})
		}
		cart.Lines = append(cart.Lines, line)
	}
	for _, s := range req.Campsites {
		stay, err := model.ParseDateRange(s.CheckIn, s.CheckOut)
		if err != nil {
			return model.Cart{}, err
		}
		cart.Lines = append(cart.Lines, model.CampsiteLine{CampsiteID: s.ID, Stay: stay, ClientPrice: s.Price})
	}
	for _, m := range req.Merchandise {
		cart.Lines = append(cart.Lines, model.MerchandiseLine{SkuID: m.SkuID, Quantity: m.Quantity})
	}
	for _, a := range req.Assets {
		stay, err := model.ParseDateRange(a.CheckIn, a.CheckOut)
		if err != nil {
			return model.Cart{}, err
		}
		cart.Lines = append(cart.Lines, model.AssetLine{AssetTypeID: a.ID, Stay: stay, ClientPrice: a.Price})
	}
	for _, s := range req.Subevents {
		cart.Lines = append(cart.Lines, model.SubeventLine{SubeventID: s.SubeventID, ClientPrice: s.Price})
	}
	return cart, nil
}

func toCheckoutResponse(result *model.CheckoutResult) dto.CheckoutResponse {
	resp := dto.CheckoutResponse{
		OrderID: result.OrderID,
		EventID: result.EventID,
		Total:   result.Total,
		Status:  string(result.Status),
		Tickets: make([]dto.IssuedTicket, 0, len(result.Tickets)),
	}
	for _, t := range result.Tickets {
		resp.Tickets = append(resp.Tickets, dto.IssuedTicket{
			AttendeeID:   t.AttendeeID,
			PersonID:     t.PersonID,
			TicketTypeID: t.TicketTypeID,
			Code:         t.Code,
		})
	}
	return resp
}
