// Package eventbus publishes and consumes generation lifecycle events over
// a watermill publisher/subscriber pair. The transport (Kafka in
// production, in-memory channels in tests) is chosen by pkg/channels.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/flowforge/flowforge/pkg/events"
)

// Publisher emits lifecycle events. The pipeline only needs this side.
type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Handler processes one decoded lifecycle event. Returning an error nacks
// the message.
type Handler func(ctx context.Context, event events.Event) error

// EventBus is the full publish/subscribe surface.
type EventBus interface {
	Publisher
	Subscribe(ctx context.Context, handler Handler) error
	Close() error
	GenerateID() string
}

// eventFactories maps event types to fresh decode targets.
var eventFactories = map[events.EventType]func() events.Event{
	events.GenerationStartedEvent:   func() events.Event { return &events.GenerationStarted{} },
	events.PlanCreatedEvent:         func() events.Event { return &events.PlanCreated{} },
	events.GenerationCompletedEvent: func() events.Event { return &events.GenerationCompleted{} },
	events.GenerationFailedEvent:    func() events.Event { return &events.GenerationFailed{} },
}

type WatermillEventBus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
}

func NewWatermillEventBus(pub message.Publisher, sub message.Subscriber) *WatermillEventBus {
	return &WatermillEventBus{
		publisher:  pub,
		subscriber: sub,
	}
}

func (eb *WatermillEventBus) GenerateID() string {
	return watermill.NewULID()
}

// Publish marshals the event onto the lifecycle topic. The event type rides
// in message metadata so consumers can route without decoding.
func (eb *WatermillEventBus) Publish(_ context.Context, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling %s event: %w", event.GetType(), err)
	}

	msg := message.NewMessage("msg-"+eb.GenerateID(), payload)
	msg.Metadata.Set(events.EventTypeMetadataKey, string(event.GetType()))

	return eb.publisher.Publish(events.Topic, msg)
}

// Subscribe consumes the lifecycle topic and dispatches decoded events to
// the handler. Unknown event types are nacked.
func (eb *WatermillEventBus) Subscribe(ctx context.Context, handler Handler) error {
	messages, err := eb.subscriber.Subscribe(ctx, events.Topic)
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", events.Topic, err)
	}

	go func() {
		for msg := range messages {
			eventType := events.EventType(msg.Metadata.Get(events.EventTypeMetadataKey))

			factory, ok := eventFactories[eventType]
			if !ok {
				msg.Nack()

				continue
			}

			event := factory()
			if err := json.Unmarshal(msg.Payload, event); err != nil {
				msg.Nack()

				continue
			}

			if err := handler(ctx, event); err != nil {
				msg.Nack()

				continue
			}

			msg.Ack()
		}
	}()

	return nil
}

func (eb *WatermillEventBus) Close() error {
	if err := eb.publisher.Close(); err != nil {
		return err
	}

	return eb.subscriber.Close()
}
