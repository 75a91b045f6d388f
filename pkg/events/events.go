// Package events defines the generation lifecycle event types published to
// the event bus. Consumers outside this process (billing, analytics, the
// intake UI) subscribe to these; nothing in the pipeline depends on them.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic is the Kafka topic carrying all generation lifecycle events.
const Topic = "flowforge.generation.events"

// EventTypeMetadataKey is the message metadata key holding the event type,
// so consumers can route without decoding the payload.
const EventTypeMetadataKey = "event_type"

const (
	GenerationStartedEvent   EventType = "generation.started"
	PlanCreatedEvent         EventType = "generation.plan.created"
	GenerationCompletedEvent EventType = "generation.completed"
	GenerationFailedEvent    EventType = "generation.failed"
)

// Event is implemented by every lifecycle event.
type Event interface {
	GetType() EventType
}

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	JobID     string         `json:"job_id"`
	WorkerID  string         `json:"worker_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, jobID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		JobID:     jobID,
	}
}

// GenerationStarted is published when a job is picked up from the queue.
type GenerationStarted struct {
	BaseEvent

	Tier string `json:"tier"`
}

func (e GenerationStarted) GetType() EventType {
	return GenerationStartedEvent
}

// PlanCreated is published once the orchestration plan exists, whether it
// came from the AI call or from the deterministic fallback.
type PlanCreated struct {
	BaseEvent

	WorkflowName string `json:"workflow_name"`
	StepCount    int    `json:"step_count"`
	UsedFallback bool   `json:"used_fallback"`
}

func (e PlanCreated) GetType() EventType {
	return PlanCreatedEvent
}

// GenerationCompleted is published after the artifact has been persisted.
type GenerationCompleted struct {
	BaseEvent

	WorkflowName string        `json:"workflow_name"`
	NodeCount    int           `json:"node_count"`
	PlanHash     string        `json:"plan_hash,omitempty"`
	Duration     time.Duration `json:"duration"`
}

func (e GenerationCompleted) GetType() EventType {
	return GenerationCompletedEvent
}

// GenerationFailed is published when any pipeline stage fails terminally.
type GenerationFailed struct {
	BaseEvent

	Stage string `json:"stage"`
	Error string `json:"error"`
}

func (e GenerationFailed) GetType() EventType {
	return GenerationFailedEvent
}
