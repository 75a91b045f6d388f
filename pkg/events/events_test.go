package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBaseEvent(t *testing.T) {
	base := NewBaseEvent(GenerationStartedEvent, "job-1")

	assert.NotEmpty(t, base.ID)
	assert.Equal(t, GenerationStartedEvent, base.Type)
	assert.Equal(t, "job-1", base.JobID)
	assert.False(t, base.Timestamp.IsZero())
}

func TestEventTypesRoundTrip(t *testing.T) {
	event := GenerationCompleted{
		BaseEvent:    NewBaseEvent(GenerationCompletedEvent, "job-2"),
		WorkflowName: "Order Intake",
		NodeCount:    5,
		PlanHash:     "00000000deadbeef",
	}

	payload, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded GenerationCompleted
	require.NoError(t, json.Unmarshal(payload, &decoded))

	assert.Equal(t, event.JobID, decoded.JobID)
	assert.Equal(t, event.WorkflowName, decoded.WorkflowName)
	assert.Equal(t, GenerationCompletedEvent, decoded.GetType())
}
