package errors

import "errors"

var (
	ErrAlreadyExists      = errors.New("already exists")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Cart validation.
	ErrEmptyCart            = errors.New("cart is empty")
	ErrInvalidCartLine      = errors.New("invalid cart line")
	ErrInvalidQuantity      = errors.New("invalid quantity")
	ErrInvalidDateRange     = errors.New("invalid date range")
	ErrInvalidTicketType    = errors.New("invalid ticket type")
	ErrInvalidSku           = errors.New("invalid sku")
	ErrInvalidCampsite      = errors.New("invalid campsite")
	ErrInvalidAssetType     = errors.New("invalid asset type")
	ErrInvalidSubevent      = errors.New("invalid subevent")
	ErrPriceMismatch        = errors.New("price mismatch")
	ErrNoTicketTypesDefined = errors.New("no ticket types defined")
	ErrTicketRequired       = errors.New("ticket required")
	ErrInvalidAmount        = errors.New("invalid amount")

	// Resource contention.
	ErrCampsiteUnavailable = errors.New("campsite unavailable")
	ErrNoAssetAvailable    = errors.New("no asset available")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrSubeventFull        = errors.New("subevent full")
	ErrConflict            = errors.New("conflict")
	ErrRequestInFlight     = errors.New("request in flight")

	// Order state.
	ErrNotCancellable  = errors.New("order not cancellable")
	ErrNotSettleable   = errors.New("order not settleable")
	ErrNotSettled      = errors.New("order not settled")
	ErrAlreadyRefunded = errors.New("item already refunded")
)

// Kind groups domain errors by how a caller is expected to react.
type Kind int

const (
	KindInfrastructure Kind = iota
	KindValidation
	KindConflict
	KindAuthorization
	KindState
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindAuthorization:
		return "authorization"
	case KindState:
		return "state"
	default:
		return "infrastructure"
	}
}

type classification struct {
	err  error
	kind Kind
	code string
}

// Ordered so that the most specific sentinel wins when an error wraps several.
var classifications = []classification{
	{ErrEmptyCart, KindValidation, "empty_cart"},
	{ErrInvalidCartLine, KindValidation, "invalid_cart_line"},
	{ErrInvalidQuantity, KindValidation, "invalid_quantity"},
	{ErrInvalidDateRange, KindValidation, "invalid_date_range"},
	{ErrInvalidTicketType, KindValidation, "invalid_ticket_type"},
	{ErrInvalidSku, KindValidation, "invalid_sku"},
	{ErrInvalidCampsite, KindValidation, "invalid_campsite"},
	{ErrInvalidAssetType, KindValidation, "invalid_asset_type"},
	{ErrInvalidSubevent, KindValidation, "invalid_subevent"},
	{ErrPriceMismatch, KindValidation, "price_mismatch"},
	{ErrNoTicketTypesDefined, KindValidation, "no_ticket_types_defined"},
	{ErrTicketRequired, KindValidation, "ticket_required"},
	{ErrInvalidAmount, KindValidation, "invalid_amount"},

	{ErrCampsiteUnavailable, KindConflict, "campsite_unavailable"},
	{ErrNoAssetAvailable, KindConflict, "no_asset_available"},
	{ErrInsufficientStock, KindConflict, "insufficient_stock"},
	{ErrSubeventFull, KindConflict, "subevent_full"},
	{ErrRequestInFlight, KindConflict, "request_in_flight"},
	{ErrAlreadyExists, KindConflict, "already_exists"},
	{ErrConflict, KindConflict, "conflict"},

	{ErrInvalidCredentials, KindAuthorization, "invalid_credentials"},
	{ErrForbidden, KindAuthorization, "not_found"},
	{ErrNotFound, KindAuthorization, "not_found"},

	{ErrNotCancellable, KindState, "not_cancellable"},
	{ErrNotSettleable, KindState, "not_settleable"},
	{ErrNotSettled, KindState, "not_settled"},
	{ErrAlreadyRefunded, KindState, "already_refunded"},
}

func classify(err error) (classification, bool) {
	if err == nil {
		return classification{}, false
	}
	for _, c := range classifications {
		if errors.Is(err, c.err) {
			return c, true
		}
	}
	return classification{}, false
}

// KindOf reports the taxonomy kind of err. Unknown errors are infrastructure failures.
func KindOf(err error) Kind {
	c, ok := classify(err)
	if !ok {
		return KindInfrastructure
	}
	return c.kind
}

// CodeOf returns a stable machine readable code for err.
// Forbidden and not found share a code so that cross-owner access does not leak existence.
func CodeOf(err error) string {
	if err == nil {
		return "ok"
	}
	c, ok := classify(err)
	if !ok {
		return "internal"
	}
	return c.code
}
