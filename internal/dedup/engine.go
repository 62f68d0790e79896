package dedup

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"github.com/garnizeh/worklog/pkg/models"
	"github.com/garnizeh/worklog/pkg/repository"
)

// Config carries the tunable thresholds, normally read from config_values.
type Config struct {
	// Window bounds the fuzzy candidate search around the candidate's start.
	Window time.Duration
	// SimilarityThreshold is the minimum weighted score to call two records
	// duplicates.
	SimilarityThreshold float64
	// MergeThreshold is the score above which a fuzzy duplicate is merged
	// into the original instead of being marked.
	MergeThreshold float64
	// SoftDedup keeps duplicates as flagged rows; when off, exact duplicates
	// are skipped outright.
	SoftDedup bool
}

// DefaultConfig mirrors the seeded config_values defaults.
func DefaultConfig() Config {
	return Config{
		Window:              5 * time.Minute,
		SimilarityThreshold: 0.85,
		MergeThreshold:      0.9,
		SoftDedup:           true,
	}
}

const maxFuzzyCandidates = 10

// Engine decides what to do with each incoming activity record.
type Engine struct {
	store  repository.Store
	logger *slog.Logger
	cfg    Config
}

func NewEngine(store repository.Store, logger *slog.Logger, cfg Config) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultConfig().Window
	}
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = DefaultConfig().SimilarityThreshold
	}
	if cfg.MergeThreshold <= 0 {
		cfg.MergeThreshold = DefaultConfig().MergeThreshold
	}
	return &Engine{store: store, logger: logger, cfg: cfg}
}

// Check classifies the candidate without writing anything. Query failures
// during matching are logged and treated as "not a duplicate" so ingestion
// never stalls on the similarity search.
func (e *Engine) Check(ctx context.Context, candidate *models.ActivityRecord) (Outcome, error) {
	hash := ContentHash(candidate)

	existing, err := e.store.GetActivityByHash(ctx, hash)
	if err != nil {
		e.logger.Error("exact duplicate lookup failed", "err", err)
	} else if existing != nil {
		action := ActionMark
		if !e.cfg.SoftDedup {
			action = ActionSkip
		}
		return Outcome{
			Action:      action,
			IsDuplicate: true,
			Type:        MatchExact,
			OriginalID:  existing.ID,
			Confidence:  1.0,
			Hash:        hash,
			Reason:      "exact content hash match",
		}, nil
	}

	candidates, err := e.store.ListActivitiesNear(ctx, candidate.EmployeeID, candidate.Start, e.cfg.Window, maxFuzzyCandidates)
	if err != nil {
		e.logger.Error("fuzzy candidate search failed", "err", err)
		candidates = nil
	}
	for i := range candidates {
		score := similarity(candidate, &candidates[i])
		if score < e.cfg.SimilarityThreshold {
			continue
		}
		action := ActionMark
		if score > e.cfg.MergeThreshold {
			action = ActionMerge
		}
		return Outcome{
			Action:      action,
			IsDuplicate: true,
			Type:        MatchFuzzy,
			OriginalID:  candidates[i].ID,
			Confidence:  score,
			Hash:        hash,
			Reason:      fmt.Sprintf("fuzzy match, similarity %.2f", score),
		}, nil
	}

	return Outcome{Action: ActionInsert, Type: MatchNone, Hash: hash}, nil
}

// Apply executes an outcome. It returns the id of the row written for insert
// and mark, and 0 for merge and skip (the candidate is not stored separately).
func (e *Engine) Apply(ctx context.Context, candidate *models.ActivityRecord, out Outcome) (int64, error) {
	switch out.Action {
	case ActionInsert:
		candidate.ContentHash = out.Hash
		id, err := e.store.InsertActivity(ctx, candidate)
		if err != nil {
			return 0, fmt.Errorf("insert activity: %w", err)
		}
		return id, nil

	case ActionMark:
		candidate.ContentHash = out.Hash
		candidate.IsDuplicate = true
		candidate.OriginalRecordID = &out.OriginalID
		candidate.DuplicateReason = out.Reason
		candidate.Confidence = out.Confidence
		id, err := e.store.InsertActivity(ctx, candidate)
		if err != nil {
			return 0, fmt.Errorf("insert marked duplicate: %w", err)
		}
		return id, nil

	case ActionMerge:
		original, err := e.store.GetActivityByID(ctx, out.OriginalID)
		if err != nil {
			return 0, fmt.Errorf("load merge original: %w", err)
		}
		if original == nil {
			return 0, fmt.Errorf("merge original %d not found", out.OriginalID)
		}
		description := original.Description
		if len(candidate.Description) > len(description) {
			description = candidate.Description
		}
		ticketID := original.TicketID
		if candidate.TicketID != "" {
			ticketID = candidate.TicketID
		}
		if err := e.store.MergeActivity(ctx, original.ID, description, ticketID); err != nil {
			return 0, fmt.Errorf("merge activity: %w", err)
		}
		e.logger.Info("activity merged", "original_id", original.ID, "confidence", out.Confidence)
		return 0, nil

	case ActionSkip:
		e.logger.Info("duplicate activity skipped", "employee_id", candidate.EmployeeID, "start", candidate.Start, "reason", out.Reason)
		return 0, nil
	}

	return 0, fmt.Errorf("unknown dedup action %d", out.Action)
}
