package events

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/eventreg/internal/config"
)

// Module provides the outbox event publisher.
var Module = fx.Provide(newPublisher)

var newWriter = func(brokers []string, topic string) messageWriter {
	return NewKafkaWriter(brokers, topic)
}

type publisherParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *slog.Logger
}

// newPublisher prefers kafka, then the webhook, then the log.
func newPublisher(p publisherParams) (Publisher, error) {
	switch {
	case len(p.Config.KafkaBrokers) > 0:
		publisher := NewKafkaPublisher(newWriter(p.Config.KafkaBrokers, p.Config.KafkaTopic), p.Config.KafkaTopic)
		p.Lifecycle.Append(fx.Hook{
			OnStop: func(context.Context) error {
				return publisher.Close()
			},
		})
		p.Logger.Info("kafka publisher ready",
			slog.Any("brokers", p.Config.KafkaBrokers),
			slog.String("topic", p.Config.KafkaTopic),
		)
		return publisher, nil
	case p.Config.WebhookURL != "":
		publisher, err := NewWebhookPublisher(p.Config.WebhookURL, p.Logger)
		if err != nil {
			return nil, err
		}
		p.Logger.Info("webhook publisher ready", slog.String("url", p.Config.WebhookURL))
		return publisher, nil
	default:
		p.Logger.Info("kafka disabled, events go to log")
		return NewLogPublisher(p.Logger), nil
	}
}
