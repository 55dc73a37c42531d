package eventbus

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/mfigueira/formpilot/pkg/events"
	"github.com/mfigueira/formpilot/pkg/otelhelper"
)

type WatermillEventBus struct {
	publisher     message.Publisher
	subscriber    message.Subscriber
	subscriptions map[events.EventType]EventHandler
	tracer        trace.Tracer
}

func NewWatermillEventBus(pub message.Publisher, sub message.Subscriber) EventBus {
	return &WatermillEventBus{
		publisher:     pub,
		subscriber:    sub,
		subscriptions: make(map[events.EventType]EventHandler),
		tracer:        noop.NewTracerProvider().Tracer("eventbus"),
	}
}

// WithTracer enables span emission around event handling.
func (eb *WatermillEventBus) WithTracer(tracer trace.Tracer) *WatermillEventBus {
	eb.tracer = tracer

	return eb
}

var errUnknownEventType = errors.New("unknown event type")

func (eb *WatermillEventBus) GenerateID() string {
	return watermill.NewULID()
}

func (eb *WatermillEventBus) Publish(ctx context.Context, key string, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := message.NewMessage("msg-"+eb.GenerateID(), payload)
	msg.Metadata.Set(events.EventMetadataKey, key)
	msg.Metadata.Set(events.EventTypeMetadataKey, string(event.GetType()))

	return eb.publisher.Publish(events.Topic, msg)
}

func (eb *WatermillEventBus) Subscribe(ctx context.Context) error {
	messages, err := eb.subscriber.Subscribe(ctx, events.Topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			var event any

			eventType := events.EventType(msg.Metadata.Get(events.EventTypeMetadataKey))

			spanCtx, span := otelhelper.StartSpan(ctx, eb.tracer, "eventbus consume",
				attribute.String(otelhelper.EventIDKey, msg.UUID),
				attribute.String(otelhelper.EventTypeKey, string(eventType)),
			)

			handler, exists := eb.subscriptions[eventType]
			if !exists {
				msg.Ack()
				span.End()

				continue
			}

			switch eventType {
			case events.RunStartedEvent:
				event = &events.RunStarted{}
			case events.RunProgressEvent:
				event = &events.RunProgress{}
			case events.LoginRequiredEvent:
				event = &events.LoginRequired{}
			case events.WaitingForUserEvent:
				event = &events.WaitingForUser{}
			case events.RunCompletedEvent:
				event = &events.RunCompleted{}
			case events.RunFailedEvent:
				event = &events.RunFailed{}
			case events.RunStoppedEvent:
				event = &events.RunStopped{}
			case events.StepFailedEvent:
				event = &events.StepFailed{}
			default:
				otelhelper.SetError(span, errUnknownEventType)
				msg.Nack()
				span.End()

				continue
			}

			err := json.Unmarshal(msg.Payload, event)
			if err != nil {
				otelhelper.SetError(span, err)
				msg.Nack()
				span.End()

				continue
			}

			err = handler(spanCtx, event)
			if err != nil {
				otelhelper.SetError(span, err)
				msg.Nack()
				span.End()

				continue
			}

			msg.Ack()
			span.End()
		}
	}()

	return nil
}

func (eb *WatermillEventBus) Handle(eventType events.EventType, handler EventHandler) error {
	eb.subscriptions[eventType] = handler

	return nil
}

func (eb *WatermillEventBus) Close() error {
	err := eb.publisher.Close()
	if err != nil {
		return err
	}

	return eb.subscriber.Close()
}
