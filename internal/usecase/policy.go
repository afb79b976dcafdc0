package usecase

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/eventreg/internal/config"
	"github.com/polkiloo/eventreg/internal/domain/model"
)

// Policy carries the business switches of the registration engine.
type Policy struct {
	SettleOnCheckout        bool
	AllowTicketlessOrders   bool
	EnforceSubeventCapacity bool
	PriceTolerance          decimal.Decimal
	RosterSeed              uint64
	AdminEmails             []string
}

// DefaultPolicy mirrors the configuration defaults.
func DefaultPolicy() Policy {
	return Policy{
		SettleOnCheckout:        true,
		AllowTicketlessOrders:   true,
		EnforceSubeventCapacity: true,
		PriceTolerance:          decimal.RequireFromString("0.50"),
	}
}

// NewPolicy builds Policy from application configuration.
func NewPolicy(cfg *config.Config) Policy {
	return Policy{
		SettleOnCheckout:        cfg.SettleOnCheckout,
		AllowTicketlessOrders:   cfg.AllowTicketlessOrders,
		EnforceSubeventCapacity: cfg.EnforceSubeventCapacity,
		PriceTolerance:          cfg.PriceTolerance,
		RosterSeed:              cfg.RosterSeed,
		AdminEmails:             cfg.AdminEmails,
	}
}

func (p Policy) roleFor(email string) model.Role {
	for _, admin := range p.AdminEmails {
		if strings.EqualFold(admin, email) {
			return model.RoleAdmin
		}
	}
	return model.RoleUser
}

func (p Policy) rosterSeed(now time.Time) uint64 {
	if p.RosterSeed != 0 {
		return p.RosterSeed
	}
	return uint64(now.UnixNano())
}

// Observer receives engine outcomes for metrics.
type Observer interface {
	ObserveCheckout(outcome string, elapsed time.Duration)
	ObserveCancellation(outcome string)
}

type noopObserver struct{}

func (noopObserver) ObserveCheckout(string, time.Duration) {}
func (noopObserver) ObserveCancellation(string)            {}
