// Package queue consumes automation jobs from a Redis Streams consumer
// group. Delivery is at-least-once: a job is acknowledged only after the
// handler returns without error, otherwise it stays pending for redelivery.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/flowforge/flowforge/pkg/models"
	redis "github.com/redis/go-redis/v9"
)

const (
	// jobField is the stream entry field carrying the serialized job.
	jobField = "job"

	readBlock    = 1 * time.Second
	readCount    = 10
	retryBackoff = 1 * time.Second
)

// Config locates the job stream and names this consumer within its group.
type Config struct {
	Addr     string
	Password string
	DB       int

	Stream   string
	Group    string
	Consumer string
}

// JobHandler processes one decoded job. Returning an error leaves the
// stream entry unacknowledged.
type JobHandler func(ctx context.Context, job *models.AutomationJob) error

// Consumer reads jobs from the stream sequentially. Cross-job parallelism
// is achieved by running more consumers, not by fanning out within one.
type Consumer struct {
	config Config
	client redis.UniversalClient
	logger *slog.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewConsumer(config Config, logger *slog.Logger) (*Consumer, error) {
	if config.Stream == "" {
		return nil, errors.New("queue stream name is required")
	}

	if config.Group == "" {
		return nil, errors.New("queue consumer group is required")
	}

	if config.Consumer == "" {
		return nil, errors.New("queue consumer name is required")
	}

	if config.Addr == "" {
		config.Addr = "localhost:6379"
	}

	return &Consumer{
		config: config,
		stopCh: make(chan struct{}),
		logger: logger.With(
			"module", "queue",
			"stream", config.Stream,
			"group", config.Group,
		),
	}, nil
}

// Start connects to Redis, ensures the consumer group exists, and begins
// consuming in a background goroutine.
func (c *Consumer) Start(ctx context.Context, handler JobHandler) error {
	c.client = redis.NewClient(&redis.Options{
		Addr:     c.config.Addr,
		Password: c.config.Password,
		DB:       c.config.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := c.client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	err := c.client.XGroupCreateMkStream(ctx, c.config.Stream, c.config.Group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	c.logger.InfoContext(ctx, "Queue consumer started", "consumer", c.config.Consumer)

	c.wg.Add(1)

	go c.consume(ctx, handler)

	return nil
}

func (c *Consumer) consume(ctx context.Context, handler JobHandler) {
	defer c.wg.Done()

	for {
		select {
		case <-c.stopCh:
			c.logger.InfoContext(ctx, "Queue consumer stopped")

			return
		case <-ctx.Done():
			c.logger.InfoContext(ctx, "Context cancelled, stopping queue consumer")

			return
		default:
			if err := c.readBatch(ctx, handler); err != nil {
				c.logger.ErrorContext(ctx, "Error reading from stream", "error", err)
				time.Sleep(retryBackoff)
			}
		}
	}
}

func (c *Consumer) readBatch(ctx context.Context, handler JobHandler) error {
	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.config.Group,
		Consumer: c.config.Consumer,
		Streams:  []string{c.config.Stream, ">"},
		Count:    readCount,
		Block:    readBlock,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
			return nil
		}

		return err
	}

	for _, stream := range streams {
		for _, entry := range stream.Messages {
			c.processEntry(ctx, handler, entry)
		}
	}

	return nil
}

// processEntry decodes and handles one stream entry. Jobs are processed
// strictly one at a time; the handler owns all stage sequencing.
func (c *Consumer) processEntry(ctx context.Context, handler JobHandler, entry redis.XMessage) {
	payload, ok := entry.Values[jobField].(string)
	if !ok {
		c.logger.WarnContext(ctx, "Dropping malformed stream entry", "entry_id", entry.ID)
		c.ack(ctx, entry.ID)

		return
	}

	var job models.AutomationJob
	if err := json.Unmarshal([]byte(payload), &job); err != nil {
		c.logger.WarnContext(ctx, "Dropping undecodable job", "entry_id", entry.ID, "error", err)
		c.ack(ctx, entry.ID)

		return
	}

	if err := handler(ctx, &job); err != nil {
		// Not acked: the entry stays pending and is redelivered by the
		// stream's claim machinery.
		c.logger.ErrorContext(ctx, "Job handler failed, leaving entry pending",
			"entry_id", entry.ID,
			"job_id", job.ID,
			"error", err,
		)

		return
	}

	c.ack(ctx, entry.ID)
}

func (c *Consumer) ack(ctx context.Context, entryID string) {
	if err := c.client.XAck(ctx, c.config.Stream, c.config.Group, entryID).Err(); err != nil {
		c.logger.ErrorContext(ctx, "Failed to acknowledge entry", "entry_id", entryID, "error", err)
	}
}

// Stop halts consumption and closes the connection.
func (c *Consumer) Stop(ctx context.Context) error {
	close(c.stopCh)
	c.wg.Wait()

	if c.client != nil {
		if err := c.client.Close(); err != nil {
			c.logger.ErrorContext(ctx, "Error closing Redis client", "error", err)
		}
	}

	return nil
}

// Enqueue appends a job to the stream. Used by the intake API and tests.
func Enqueue(ctx context.Context, client redis.UniversalClient, stream string, job *models.AutomationJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshaling job %s: %w", job.ID, err)
	}

	return client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{jobField: string(payload)},
	}).Err()
}
