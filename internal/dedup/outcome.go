// Package dedup detects exact and fuzzy duplicate activity records and
// carries out the resulting insert/mark/merge/skip decision.
package dedup

// Action is the closed set of decisions the engine can take for a candidate
// record.
type Action int

const (
	// ActionInsert persists the candidate as a new record with its hash.
	ActionInsert Action = iota
	// ActionMark persists the candidate flagged duplicate, pointing at the
	// original record.
	ActionMark
	// ActionMerge folds the candidate into the original record and discards
	// the candidate as a separate row.
	ActionMerge
	// ActionSkip discards the candidate silently.
	ActionSkip
)

func (a Action) String() string {
	switch a {
	case ActionInsert:
		return "insert"
	case ActionMark:
		return "mark"
	case ActionMerge:
		return "merge"
	case ActionSkip:
		return "skip"
	default:
		return "unknown"
	}
}

// MatchType distinguishes how a duplicate was found.
type MatchType string

const (
	MatchNone  MatchType = "none"
	MatchExact MatchType = "exact"
	MatchFuzzy MatchType = "fuzzy"
)

// Outcome is the tagged result of a duplicate check. Each action carries
// exactly the data needed to execute it: OriginalID for mark/merge, Hash for
// insert.
type Outcome struct {
	Action      Action
	IsDuplicate bool
	Type        MatchType
	OriginalID  int64
	Confidence  float64
	Hash        string
	Reason      string
}
