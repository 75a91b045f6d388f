package queue

import (
	"testing"

	"github.com/flowforge/flowforge/pkg/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConsumerValidation(t *testing.T) {
	logger := log.WithModule("queue-test")

	tests := []struct {
		name        string
		config      Config
		expectError bool
		errorMsg    string
	}{
		{
			name: "valid_config",
			config: Config{
				Addr:     "localhost:6379",
				Stream:   "flowforge:jobs",
				Group:    "generators",
				Consumer: "worker-1",
			},
			expectError: false,
		},
		{
			name: "missing_stream",
			config: Config{
				Group:    "generators",
				Consumer: "worker-1",
			},
			expectError: true,
			errorMsg:    "queue stream name is required",
		},
		{
			name: "missing_group",
			config: Config{
				Stream:   "flowforge:jobs",
				Consumer: "worker-1",
			},
			expectError: true,
			errorMsg:    "queue consumer group is required",
		},
		{
			name: "missing_consumer",
			config: Config{
				Stream: "flowforge:jobs",
				Group:  "generators",
			},
			expectError: true,
			errorMsg:    "queue consumer name is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			consumer, err := NewConsumer(tt.config, logger)

			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)

				return
			}

			require.NoError(t, err)
			require.NotNil(t, consumer)
		})
	}
}

func TestNewConsumerDefaultsAddr(t *testing.T) {
	consumer, err := NewConsumer(Config{
		Stream:   "flowforge:jobs",
		Group:    "generators",
		Consumer: "worker-1",
	}, log.WithModule("queue-test"))
	require.NoError(t, err)

	assert.Equal(t, "localhost:6379", consumer.config.Addr)
}
