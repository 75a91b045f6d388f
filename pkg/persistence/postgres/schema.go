package postgres

import "context"

// bootstrap creates the sink tables when they do not exist yet. The schema
// is small enough that full migration tooling would be overhead.
func (p *Persistence) bootstrap(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS automations (
			job_id VARCHAR(255) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			platform VARCHAR(50) NOT NULL,
			workflow JSONB NOT NULL,
			instructions TEXT NOT NULL DEFAULT '',
			metadata JSONB,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL,
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL
		);

		CREATE TABLE IF NOT EXISTS job_progress (
			job_id VARCHAR(255) PRIMARY KEY,
			percent INT NOT NULL DEFAULT 0,
			status VARCHAR(50) NOT NULL CHECK (status IN ('pending', 'processing', 'completed', 'failed')),
			error_message TEXT NOT NULL DEFAULT '',
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_job_progress_status ON job_progress(status);
	`)

	return err
}
