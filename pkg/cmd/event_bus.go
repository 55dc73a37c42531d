package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/mfigueira/formpilot/pkg/channels/gochannel"
	"github.com/mfigueira/formpilot/pkg/channels/kafka"
	"github.com/mfigueira/formpilot/pkg/eventbus"
	"github.com/mfigueira/formpilot/pkg/otelhelper"
)

func NewEventBus(provider, serviceName string, logger *slog.Logger) eventbus.EventBus {
	var bus eventbus.EventBus

	switch provider {
	case "kafka":
		pub, sub, err := kafka.CreateChannel(watermill.NewSlogLogger(logger), serviceName)
		if err != nil {
			panic(fmt.Errorf("failed to create Kafka pub/sub: %w", err))
		}

		bus = eventbus.NewWatermillEventBus(pub, sub)
	default:
		pub, sub, err := gochannel.CreateChannel(watermill.NewSlogLogger(logger))
		if err != nil {
			panic(fmt.Errorf("failed to create in-memory pub/sub: %w", err))
		}

		bus = eventbus.NewWatermillEventBus(pub, sub)
	}

	// Span emission follows the standard OTLP environment configuration.
	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "" {
		if wb, ok := bus.(*eventbus.WatermillEventBus); ok {
			tracer, err := otelhelper.NewTracer(context.Background(), "formpilot-"+serviceName)
			if err != nil {
				logger.Warn("Failed to initialize tracer, continuing without spans", "error", err)
			} else {
				bus = wb.WithTracer(tracer)
			}
		}
	}

	return bus
}
