// Package postgres persists generated automations and job progress. It
// implements the pipeline's sink interfaces; nothing in here knows about
// plans or generation.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"github.com/flowforge/flowforge/pkg/models"
	"github.com/flowforge/flowforge/pkg/protocol"
)

// Persistence is the PostgreSQL-backed sink pair.
type Persistence struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPersistence connects, pings, and bootstraps the schema.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	if err := database.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	p := &Persistence{
		db:     database,
		logger: logger.With("module", "persistence"),
	}

	if err := p.bootstrap(ctx); err != nil {
		return nil, fmt.Errorf("failed to bootstrap schema: %w", err)
	}

	return p, nil
}

// Close closes the database connection.
func (p *Persistence) Close(ctx context.Context) error {
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// SaveAutomation upserts the finished artifact for a job.
func (p *Persistence) SaveAutomation(ctx context.Context, jobID string, artifact *models.AutomationArtifact) error {
	metadata, err := json.Marshal(artifact.Metadata)
	if err != nil {
		return fmt.Errorf("marshaling artifact metadata: %w", err)
	}

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO automations (job_id, name, description, platform, workflow, instructions, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		ON CONFLICT (job_id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			platform = EXCLUDED.platform,
			workflow = EXCLUDED.workflow,
			instructions = EXCLUDED.instructions,
			metadata = EXCLUDED.metadata,
			updated_at = NOW()`,
		jobID,
		artifact.Name,
		artifact.Description,
		artifact.Platform,
		[]byte(artifact.WorkflowJSON),
		artifact.Instructions,
		metadata,
	)
	if err != nil {
		return fmt.Errorf("saving automation for job %s: %w", jobID, err)
	}

	p.logger.InfoContext(ctx, "Automation saved", "job_id", jobID, "name", artifact.Name)

	return nil
}

// UpdateProgress upserts the job's progress row.
func (p *Persistence) UpdateProgress(
	ctx context.Context,
	jobID string,
	percent int,
	status protocol.ProgressStatus,
	errorMessage string,
) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO job_progress (job_id, percent, status, error_message, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (job_id) DO UPDATE SET
			percent = EXCLUDED.percent,
			status = EXCLUDED.status,
			error_message = EXCLUDED.error_message,
			updated_at = NOW()`,
		jobID, percent, string(status), errorMessage,
	)
	if err != nil {
		return fmt.Errorf("updating progress for job %s: %w", jobID, err)
	}

	return nil
}

// Progress is the stored progress row for a job.
type Progress struct {
	JobID        string
	Percent      int
	Status       protocol.ProgressStatus
	ErrorMessage string
	UpdatedAt    time.Time
}

// GetProgress returns the progress row for a job, or sql.ErrNoRows.
func (p *Persistence) GetProgress(ctx context.Context, jobID string) (*Progress, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT job_id, percent, status, error_message, updated_at
		FROM job_progress WHERE job_id = $1`, jobID)

	var progress Progress

	err := row.Scan(&progress.JobID, &progress.Percent, &progress.Status, &progress.ErrorMessage, &progress.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("loading progress for job %s: %w", jobID, err)
	}

	return &progress, nil
}

// GetAutomation returns the stored artifact for a job, or sql.ErrNoRows.
func (p *Persistence) GetAutomation(ctx context.Context, jobID string) (*models.AutomationArtifact, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT name, description, platform, workflow, instructions, metadata
		FROM automations WHERE job_id = $1`, jobID)

	var (
		artifact models.AutomationArtifact
		workflow []byte
		metadata []byte
	)

	err := row.Scan(&artifact.Name, &artifact.Description, &artifact.Platform, &workflow, &artifact.Instructions, &metadata)
	if err != nil {
		return nil, fmt.Errorf("loading automation for job %s: %w", jobID, err)
	}

	artifact.WorkflowJSON = json.RawMessage(workflow)

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &artifact.Metadata); err != nil {
			return nil, fmt.Errorf("decoding artifact metadata for job %s: %w", jobID, err)
		}
	}

	return &artifact, nil
}
