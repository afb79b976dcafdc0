package metrics

import (
	"go.uber.org/fx"

	"github.com/polkiloo/eventreg/internal/usecase"
)

// Module provides the metrics recorder and exposes it as the engine observer.
var Module = fx.Provide(
	NewRecorder,
	func(r *Recorder) usecase.Observer { return r },
)
