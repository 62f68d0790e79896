package dedup

import (
	"context"
	"fmt"

	"github.com/garnizeh/worklog/pkg/models"
	"github.com/garnizeh/worklog/pkg/repository"
)

const cleanupReason = "automatic cleanup - exact duplicate"

// CleanupExistingDuplicates groups stored non-duplicate records by
// (employee, start, duration) and, in each group with more than one member,
// keeps the lowest-id record and marks the rest as duplicates with
// confidence 1.0. All marking runs in a single transaction; a dry run only
// counts what would be marked.
func (e *Engine) CleanupExistingDuplicates(ctx context.Context, dryRun bool) (int, error) {
	records, err := e.store.ListCleanupCandidates(ctx)
	if err != nil {
		return 0, fmt.Errorf("list cleanup candidates: %w", err)
	}

	type groupKey struct {
		employeeID int64
		start      int64
		duration   float64
	}

	groups := make(map[groupKey][]models.ActivityRecord)
	order := make([]groupKey, 0)
	for _, rec := range records {
		k := groupKey{employeeID: rec.EmployeeID, start: rec.Start.Unix(), duration: rec.DurationHours}
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], rec)
	}

	marked := 0
	mark := func(store repository.Store) error {
		for _, k := range order {
			group := groups[k]
			if len(group) < 2 {
				continue
			}
			// candidates are ordered by id within the group; group[0] survives
			original := group[0]
			for _, dup := range group[1:] {
				if dryRun {
					marked++
					continue
				}
				if err := store.MarkActivityDuplicate(ctx, dup.ID, original.ID, cleanupReason, 1.0); err != nil {
					return fmt.Errorf("mark duplicate %d: %w", dup.ID, err)
				}
				marked++
			}
		}
		return nil
	}

	if dryRun {
		if err := mark(e.store); err != nil {
			return 0, err
		}
		e.logger.Info("duplicate cleanup dry run", "would_mark", marked)
		return marked, nil
	}

	if err := e.store.WithinTx(ctx, mark); err != nil {
		return 0, err
	}
	e.logger.Info("duplicate cleanup complete", "marked", marked)
	return marked, nil
}
