package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"log/slog"

	"github.com/garnizeh/worklog/internal/textutil"
	"github.com/garnizeh/worklog/pkg/models"
	"github.com/garnizeh/worklog/pkg/repository"
)

// ErrUnresolvable is returned when a raw name neither matches an existing
// identity nor passes validation for auto-creation.
var ErrUnresolvable = errors.New("name could not be resolved")

// minFuzzyScore is the confidence floor for fuzzy full-name matching.
const minFuzzyScore = 0.5

// Resolver turns free-text names into canonical employee ids, creating
// employees and aliases as needed. All creations mutate the run-scoped Cache
// in place.
type Resolver struct {
	cache      *Cache
	store      repository.Store
	logger     *slog.Logger
	legacySeen map[int64]bool
	assocFloor float64
	assocUpper float64
}

func NewResolver(cache *Cache, store repository.Store, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		cache:      cache,
		store:      store,
		logger:     logger,
		legacySeen: make(map[int64]bool),
		assocFloor: 0.5,
		assocUpper: 0.85,
	}
}

// Resolve maps a raw name string to a canonical employee id.
//
// Multi-name cells ("Franco Fiorellino/Matteo Signo") are split on a fixed
// separator list; each sub-name is tried against existing identities and the
// first hit wins. If none resolves, the first sub-name passing validation is
// created. Single names follow the same match-then-create path.
func (r *Resolver) Resolve(ctx context.Context, rawName string) (int64, error) {
	clean := textutil.CollapseSpaces(strings.TrimSpace(rawName))
	if clean == "" {
		r.logger.Warn("name rejected", "name", rawName, "reason", "empty")
		return 0, ErrUnresolvable
	}

	if parts := splitMultiName(clean); parts != nil {
		for _, part := range parts {
			if id, ok, err := r.resolveExisting(ctx, part); err != nil {
				return 0, err
			} else if ok {
				return id, nil
			}
		}
		for _, part := range parts {
			if r.IsValidName(part, false) {
				return r.create(ctx, part)
			}
		}
		r.logger.Warn("name rejected", "name", rawName, "reason", "no sub-name resolvable or valid")
		return 0, ErrUnresolvable
	}

	if id, ok, err := r.resolveExisting(ctx, clean); err != nil {
		return 0, err
	} else if ok {
		return id, nil
	}

	if !r.IsValidName(clean, false) {
		r.logger.Warn("name rejected", "name", rawName, "reason", "failed validity filter")
		return 0, ErrUnresolvable
	}
	return r.create(ctx, clean)
}

// resolveExisting runs the match chain: exact, alias, fuzzy, legacy table.
func (r *Resolver) resolveExisting(ctx context.Context, name string) (int64, bool, error) {
	normalized := textutil.Normalize(name)
	if normalized == "" {
		return 0, false, nil
	}

	// exact match on full name or "first last"
	if e, ok := r.cache.LookupEmployee(normalized); ok {
		if err := r.ensureLegacy(ctx, e); err != nil {
			return 0, false, err
		}
		return e.ID, true, nil
	}

	// alias match
	if id, ok := r.cache.LookupAlias(normalized); ok {
		return id, true, nil
	}

	// fuzzy match against canonical full names, best score above the floor
	if e, score := r.bestFuzzyMatch(normalized); e != nil {
		if err := r.recordAlias(ctx, e.ID, name, "fuzzy_match", fmt.Sprintf("score %.2f", score)); err != nil {
			return 0, false, err
		}
		r.logger.Info("fuzzy name match", "name", name, "matched", e.FullName, "score", score)
		return e.ID, true, nil
	}

	// legacy-table lookup via the two parsing heuristics
	for _, strategy := range lookupStrategies {
		parsed, ok := strategy(name)
		if !ok {
			continue
		}
		legacy, err := r.store.GetLegacyByName(ctx, parsed.First, parsed.Last)
		if err != nil {
			return 0, false, fmt.Errorf("legacy lookup: %w", err)
		}
		if legacy != nil {
			return legacy.EmployeeID, true, nil
		}
	}

	return 0, false, nil
}

func (r *Resolver) bestFuzzyMatch(normalized string) (*models.Employee, float64) {
	var best *models.Employee
	var bestScore float64
	for _, e := range r.cache.Employees() {
		score := nameSimilarity(normalized, textutil.Normalize(e.FullName))
		if score > bestScore {
			best, bestScore = e, score
		}
	}
	if bestScore > minFuzzyScore {
		return best, bestScore
	}
	return nil, 0
}

// create parses the name, re-validates the parts and persists a new canonical
// employee plus its legacy row.
func (r *Resolver) create(ctx context.Context, name string) (int64, error) {
	var parsed parsedName
	ok := false
	for _, strategy := range creationStrategies {
		p, matched := strategy(name)
		if !matched {
			continue
		}
		if !r.IsValidName(p.First, false) || !r.IsValidName(p.Last, true) {
			continue
		}
		parsed, ok = p, true
		break
	}
	if !ok {
		r.logger.Warn("name rejected", "name", name, "reason", "no parse produced valid parts")
		return 0, ErrUnresolvable
	}

	fullName := strings.TrimSpace(parsed.First + " " + parsed.Last)
	e := &models.Employee{
		FirstName: parsed.First,
		LastName:  parsed.Last,
		FullName:  fullName,
		Active:    true,
	}
	id, err := r.store.CreateEmployee(ctx, e)
	if err != nil {
		return 0, fmt.Errorf("create employee %q: %w", fullName, err)
	}
	e.ID = id
	r.cache.AddEmployee(e)

	if err := r.ensureLegacy(ctx, e); err != nil {
		return 0, err
	}

	// keep the literal spelling when it differs from the canonical form
	if textutil.Normalize(name) != textutil.Normalize(fullName) {
		if err := r.recordAlias(ctx, id, name, "auto_create", "original spelling"); err != nil {
			return 0, err
		}
	}

	r.logger.Info("employee created", "name", fullName, "id", id)
	return id, nil
}

// ensureLegacy lazily creates the backward-compatibility row the first time a
// canonical identity is referenced in this run.
func (r *Resolver) ensureLegacy(ctx context.Context, e *models.Employee) error {
	if r.legacySeen[e.ID] {
		return nil
	}
	existing, err := r.store.GetLegacyByEmployeeID(ctx, e.ID)
	if err != nil {
		return fmt.Errorf("legacy check: %w", err)
	}
	if existing == nil {
		l := &models.LegacyEmployee{EmployeeID: e.ID, FirstName: e.FirstName, LastName: e.LastName}
		if _, err := r.store.CreateLegacyEmployee(ctx, l); err != nil {
			return fmt.Errorf("create legacy employee: %w", err)
		}
	}
	r.legacySeen[e.ID] = true
	return nil
}

func (r *Resolver) recordAlias(ctx context.Context, employeeID int64, rawName, source, note string) error {
	var parsed parsedName
	for _, strategy := range creationStrategies {
		if p, ok := strategy(rawName); ok {
			parsed = p
			break
		}
	}
	a := &models.EmployeeAlias{
		EmployeeID: employeeID,
		AliasFirst: parsed.First,
		AliasLast:  parsed.Last,
		AliasFull:  textutil.CollapseSpaces(strings.TrimSpace(rawName)),
		Source:     source,
		Note:       note,
	}
	if _, err := r.store.CreateAlias(ctx, a); err != nil {
		return fmt.Errorf("create alias: %w", err)
	}
	r.cache.AddAlias(a)
	return nil
}

// ResolveClient maps a client name to its id, creating the client when
// unseen. A near-miss against an existing client is enqueued for manual
// association review while the literal name is still created, so ingestion
// never blocks on the queue.
func (r *Resolver) ResolveClient(ctx context.Context, rawName string) (int64, error) {
	clean := textutil.CollapseSpaces(strings.TrimSpace(rawName))
	if clean == "" {
		return 0, ErrUnresolvable
	}
	normalized := textutil.Normalize(clean)

	if c, ok := r.cache.LookupClient(normalized); ok {
		return c.ID, nil
	}

	var suggested *models.Client
	var bestScore float64
	for _, name := range r.cache.ClientNames() {
		score := nameSimilarity(normalized, name)
		if score > bestScore {
			if c, ok := r.cache.LookupClient(name); ok {
				suggested, bestScore = c, score
			}
		}
	}
	if suggested != nil && bestScore >= r.assocUpper {
		return suggested.ID, nil
	}

	c := &models.Client{Name: clean, Active: true}
	id, err := r.store.CreateClient(ctx, c)
	if err != nil {
		return 0, fmt.Errorf("create client %q: %w", clean, err)
	}
	c.ID = id
	r.cache.AddClient(c)

	if suggested != nil && bestScore >= r.assocFloor {
		entry := &models.AssociationQueueEntry{
			RawName:           clean,
			SuggestedClientID: &suggested.ID,
			Confidence:        bestScore,
		}
		if _, err := r.store.EnqueueAssociation(ctx, entry); err != nil {
			return 0, fmt.Errorf("enqueue association: %w", err)
		}
		r.logger.Info("client association queued", "name", clean, "suggested", suggested.Name, "score", bestScore)
	}

	return id, nil
}

// ResolveVehicle maps a vehicle name to its id, creating it when unseen.
func (r *Resolver) ResolveVehicle(ctx context.Context, rawName string) (int64, error) {
	clean := textutil.CollapseSpaces(strings.TrimSpace(rawName))
	if clean == "" {
		return 0, ErrUnresolvable
	}
	normalized := textutil.Normalize(clean)

	if v, ok := r.cache.vehicles[normalized]; ok {
		return v.ID, nil
	}

	v := &models.Vehicle{Name: clean}
	id, err := r.store.CreateVehicle(ctx, v)
	if err != nil {
		return 0, fmt.Errorf("create vehicle %q: %w", clean, err)
	}
	v.ID = id
	r.cache.AddVehicle(v)
	return id, nil
}

// nameSimilarity scores two normalized names by the better of edit-distance
// similarity and token overlap.
func nameSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	sim := textutil.Similarity(a, b, 0)

	ta := strings.Fields(a)
	tb := strings.Fields(b)
	if len(ta) > 0 && len(tb) > 0 {
		matched := 0
		for _, x := range ta {
			for _, y := range tb {
				if x == y {
					matched++
					break
				}
			}
		}
		denom := len(ta)
		if len(tb) > denom {
			denom = len(tb)
		}
		if ts := float64(matched) / float64(denom); ts > sim {
			sim = ts
		}
	}
	return sim
}
