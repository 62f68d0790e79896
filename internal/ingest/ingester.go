// Package ingest parses heterogeneous CSV exports and loads them through
// identity resolution and deduplication into the store.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"log/slog"

	"github.com/google/uuid"

	"github.com/garnizeh/worklog/internal/dedup"
	"github.com/garnizeh/worklog/internal/identity"
	"github.com/garnizeh/worklog/pkg/models"
	"github.com/garnizeh/worklog/pkg/repository"
)

// Source types accepted by IngestFile.
const (
	SourceAttendance = "attendance"
	SourceActivity   = "activity"
	SourceCalendar   = "calendar"
	SourceProject    = "project"
	SourceVehicle    = "vehicle"
	SourceRemote     = "remote"
)

// Import session statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// row outcomes, tallied into the import session counters.
type rowResult int

const (
	resInserted rowResult = iota
	resUpdated
	resSkipped
)

// rowContext is the per-file processing state: a tx-bound store, a resolver
// over the run-scoped identity cache, and the dedup engine.
type rowContext struct {
	store    repository.Store
	resolver *identity.Resolver
	engine   *dedup.Engine
}

type rowHandler func(ctx context.Context, rc *rowContext, rec map[string]string) (rowResult, error)

var handlers = map[string]rowHandler{
	SourceAttendance: ingestAttendanceRow,
	SourceActivity:   ingestActivityRow,
	SourceCalendar:   ingestCalendarRow,
	SourceProject:    ingestProjectRow,
	SourceVehicle:    ingestVehicleRow,
	SourceRemote:     ingestRemoteRow,
}

// Ingester drives file imports. Each file runs in a single transaction; row
// errors become warnings and skip the row, file-level errors roll everything
// back and mark the session failed.
type Ingester struct {
	store    repository.Store
	logger   *slog.Logger
	dedupCfg dedup.Config
}

func NewIngester(store repository.Store, logger *slog.Logger, dedupCfg dedup.Config) *Ingester {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingester{store: store, logger: logger, dedupCfg: dedupCfg}
}

// IngestFile parses and loads one file. The returned session reflects the
// final state even when the import failed; the error reports file-level
// failures only.
func (ing *Ingester) IngestFile(ctx context.Context, fileName, sourceType string, data []byte) (*models.ImportSession, error) {
	session := &models.ImportSession{
		SessionID:  uuid.NewString(),
		FileName:   fileName,
		SourceType: sourceType,
		Status:     StatusRunning,
	}
	if _, err := ing.store.CreateImportSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create import session: %w", err)
	}

	err := ing.run(ctx, session, sourceType, data)
	if err != nil {
		session.Status = StatusFailed
		session.Errors = append(session.Errors, err.Error())
		ing.logger.Error("import failed", "session_id", session.SessionID, "file", fileName, "err", err)
	} else {
		session.Status = StatusCompleted
		ing.logger.Info("import completed",
			"session_id", session.SessionID,
			"file", fileName,
			"source", sourceType,
			"processed", session.Processed,
			"inserted", session.Inserted,
			"updated", session.Updated,
			"skipped", session.Skipped)
	}

	if uerr := ing.store.UpdateImportSession(ctx, session); uerr != nil {
		ing.logger.Error("update import session failed", "session_id", session.SessionID, "err", uerr)
		if err == nil {
			err = fmt.Errorf("update import session: %w", uerr)
		}
	}
	return session, err
}

func (ing *Ingester) run(ctx context.Context, session *models.ImportSession, sourceType string, data []byte) error {
	handler, ok := handlers[sourceType]
	if !ok {
		return fmt.Errorf("unknown source type %q", sourceType)
	}

	table, err := ParseCSV(data)
	if err != nil {
		return err
	}
	session.Warnings = append(session.Warnings, table.Warnings...)
	ing.logger.Info("file parsed",
		"session_id", session.SessionID,
		"rows", len(table.Rows),
		"encoding", table.Encoding,
		"delimiter", string(table.Delimiter))

	return ing.store.WithinTx(ctx, func(tx repository.Store) error {
		cache, err := identity.LoadCache(ctx, tx)
		if err != nil {
			return fmt.Errorf("load identity cache: %w", err)
		}
		rc := &rowContext{
			store:    tx,
			resolver: identity.NewResolver(cache, tx, ing.logger),
			engine:   dedup.NewEngine(tx, ing.logger, ing.dedupCfg),
		}

		for i, rec := range table.Rows {
			session.Processed++
			res, err := handler(ctx, rc, rec)
			if err != nil {
				session.Skipped++
				session.Warnings = append(session.Warnings, fmt.Sprintf("row %d: %v", i+2, err))
				continue
			}
			switch res {
			case resInserted:
				session.Inserted++
			case resUpdated:
				session.Updated++
			case resSkipped:
				session.Skipped++
			}
		}
		return nil
	})
}

// resolveEmployee wraps the resolver so an unresolvable name reads as a row
// problem, not a pipeline failure.
func resolveEmployee(ctx context.Context, rc *rowContext, raw string) (int64, error) {
	id, err := rc.resolver.Resolve(ctx, raw)
	if err != nil {
		if errors.Is(err, identity.ErrUnresolvable) {
			return 0, fmt.Errorf("employee name %q not resolvable", raw)
		}
		return 0, err
	}
	return id, nil
}

// requireColumn fetches a mandatory cell.
func requireColumn(rec map[string]string, label string, candidates ...string) (string, error) {
	v, ok := pickColumn(rec, candidates...)
	if !ok || strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("missing %s column", label)
	}
	return v, nil
}

// parseBool accepts the truthy spellings seen across the exports.
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "si", "sì", "yes", "x", "y", "s":
		return true
	}
	return false
}
