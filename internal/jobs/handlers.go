package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"log/slog"

	"github.com/garnizeh/worklog/internal/anomaly"
	"github.com/garnizeh/worklog/internal/dedup"
	"github.com/garnizeh/worklog/internal/ingest"
	"github.com/garnizeh/worklog/internal/kpi"
	"github.com/garnizeh/worklog/internal/settings"
	"github.com/garnizeh/worklog/pkg/repository"
)

// Pipeline wires the job types to the processing components. Each handler
// re-reads its tunables from config_values so runtime changes take effect on
// the next job.
type Pipeline struct {
	store    repository.Store
	settings *settings.Settings
	logger   *slog.Logger
}

func NewPipeline(store repository.Store, s *settings.Settings, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{store: store, settings: s, logger: logger}
}

// Handlers returns the handler map for the worker pool.
func (p *Pipeline) Handlers() map[string]Handler {
	return map[string]Handler{
		TypeImportFile:     p.handleImportFile,
		TypeKPIRecalculate: p.handleKPIRecalculate,
		TypeValidationScan: p.handleValidationScan,
		TypeDedupCleanup:   p.handleDedupCleanup,
	}
}

// DedupConfig reads the dedup tunables from config_values.
func (p *Pipeline) DedupConfig(ctx context.Context) dedup.Config {
	d := dedup.DefaultConfig()
	return dedup.Config{
		Window:              time.Duration(p.settings.Int(ctx, settings.CategoryDedup, "time_window_minutes", int(d.Window.Minutes()))) * time.Minute,
		SimilarityThreshold: p.settings.Float(ctx, settings.CategoryDedup, "similarity_threshold", d.SimilarityThreshold),
		MergeThreshold:      p.settings.Float(ctx, settings.CategoryDedup, "merge_threshold", d.MergeThreshold),
		SoftDedup:           p.settings.Bool(ctx, settings.CategoryDedup, "soft_dedup_enabled", d.SoftDedup),
	}
}

func (p *Pipeline) handleImportFile(ctx context.Context, j *Job) error {
	var payload ImportFilePayload
	if err := json.Unmarshal(j.Payload, &payload); err != nil {
		return fmt.Errorf("decode import payload: %w", err)
	}

	data, err := os.ReadFile(payload.Path)
	if err != nil {
		return fmt.Errorf("read upload %s: %w", payload.Path, err)
	}

	ing := ingest.NewIngester(p.store, p.logger, p.DedupConfig(ctx))
	session, err := ing.IngestFile(ctx, payload.FileName, payload.SourceType, data)
	if err != nil {
		return err
	}
	p.logger.Info("import job done", "job_id", j.ID, "session_id", session.SessionID)
	return nil
}

func (p *Pipeline) handleKPIRecalculate(ctx context.Context, j *Job) error {
	var payload RangePayload
	if err := json.Unmarshal(j.Payload, &payload); err != nil {
		return fmt.Errorf("decode range payload: %w", err)
	}

	calc := kpi.NewCalculator(p.store, p.logger, kpi.LoadParams(ctx, p.settings))
	rows, err := calc.ComputeRange(ctx, payload.From, payload.To)
	if err != nil {
		return err
	}
	p.logger.Info("kpi job done", "job_id", j.ID, "rows", rows)
	return nil
}

func (p *Pipeline) handleValidationScan(ctx context.Context, j *Job) error {
	var payload RangePayload
	if err := json.Unmarshal(j.Payload, &payload); err != nil {
		return fmt.Errorf("decode range payload: %w", err)
	}

	th := anomaly.DefaultThresholds()
	th.MismatchTolerance = p.settings.Float(ctx, settings.CategoryValidation, "tolleranza_ore_max", th.MismatchTolerance)
	th.MinDailyHours = p.settings.Float(ctx, settings.CategoryValidation, "alert_ore_minime", th.MinDailyHours)
	engine, err := anomaly.NewEngine(p.store, p.logger, th)
	if err != nil {
		return err
	}
	findings, err := engine.Scan(ctx, payload.From, payload.To)
	if err != nil {
		return err
	}
	p.logger.Info("validation job done", "job_id", j.ID, "findings", findings)
	return nil
}

func (p *Pipeline) handleDedupCleanup(ctx context.Context, j *Job) error {
	var payload CleanupPayload
	if len(j.Payload) > 0 {
		if err := json.Unmarshal(j.Payload, &payload); err != nil {
			return fmt.Errorf("decode cleanup payload: %w", err)
		}
	}

	engine := dedup.NewEngine(p.store, p.logger, p.DedupConfig(ctx))
	marked, err := engine.CleanupExistingDuplicates(ctx, payload.DryRun)
	if err != nil {
		return err
	}
	p.logger.Info("cleanup job done", "job_id", j.ID, "marked", marked, "dry_run", payload.DryRun)
	return nil
}
