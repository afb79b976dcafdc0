package usecase

import "go.uber.org/fx"

// Module provides core business use cases to the fx container.
var Module = fx.Provide(
	NewPolicy,
	NewAuthUseCase,
	NewOrderUseCase,
	NewOutboxUseCase,
	NewAvailabilityUseCase,
	NewCheckoutUseCase,
	NewReversalUseCase,
	NewSettlementUseCase,
	NewRosterUseCase,
)
