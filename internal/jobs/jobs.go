// Package jobs is the persistent background queue driving imports, KPI
// recalculation, validation scans and duplicate cleanup.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Job types handled by the pipeline workers.
const (
	TypeImportFile     = "import.file"
	TypeKPIRecalculate = "kpi.recalculate"
	TypeValidationScan = "validation.scan"
	TypeDedupCleanup   = "dedup.cleanup"
)

// Job is one row of the jobs table.
type Job struct {
	ID          int64           `json:"id"`
	Type        string          `json:"type"`
	Payload     json.RawMessage `json:"payload"`
	Status      string          `json:"status"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"max_attempts"`
	Priority    int             `json:"priority"`
	ScheduledAt time.Time       `json:"scheduled_at"`
	NextTryAt   *time.Time      `json:"next_try_at,omitempty"`
	LastError   string          `json:"last_error,omitempty"`
	Created     time.Time       `json:"created"`
	Updated     time.Time       `json:"updated"`
}

// ImportFilePayload asks a worker to ingest one uploaded file.
type ImportFilePayload struct {
	Path       string `json:"path"`
	FileName   string `json:"file_name"`
	SourceType string `json:"source_type"`
}

// RangePayload bounds KPI recalculation and validation scans.
type RangePayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// CleanupPayload configures a duplicate cleanup run.
type CleanupPayload struct {
	DryRun bool `json:"dry_run"`
}

// Handler is the function that processes a job
type Handler func(ctx context.Context, j *Job) error

// ErrMaxAttempts indicates the job reached max attempts
var ErrMaxAttempts = errors.New("max attempts reached")

// BackoffDuration returns exponential backoff duration for attempt n
func BackoffDuration(attempt int) time.Duration {
	if attempt <= 0 {
		return time.Second
	}
	d := time.Duration(1<<uint(attempt)) * time.Second
	max := 5 * time.Minute
	if d > max {
		return max
	}
	return d
}
