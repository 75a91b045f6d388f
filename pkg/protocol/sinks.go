package protocol

import (
	"context"

	"github.com/flowforge/flowforge/pkg/models"
)

// ProgressStatus mirrors the job states owned by the intake layer.
type ProgressStatus string

const (
	ProgressPending    ProgressStatus = "pending"
	ProgressProcessing ProgressStatus = "processing"
	ProgressCompleted  ProgressStatus = "completed"
	ProgressFailed     ProgressStatus = "failed"
)

// Progress checkpoints reported by the pipeline.
const (
	CheckpointPlanning   = 10
	CheckpointGenerating = 30
	CheckpointValidating = 70
	CheckpointDone       = 100
)

// ProgressSink receives job progress updates. Implemented by external
// persistence; the pipeline only calls it at fixed checkpoints.
type ProgressSink interface {
	UpdateProgress(
		ctx context.Context,
		jobID string,
		percent int,
		status ProgressStatus,
		errorMessage string,
	) error
}

// AutomationSink receives the finished artifact. No partially valid graph
// is ever handed to it.
type AutomationSink interface {
	SaveAutomation(ctx context.Context, jobID string, artifact *models.AutomationArtifact) error
}
