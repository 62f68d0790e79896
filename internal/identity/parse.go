package identity

import "strings"

// parsedName is the outcome of one parsing heuristic.
type parsedName struct {
	First string
	Last  string
}

// parseStrategy tries to split a raw name into (first, last). Strategies are
// pure and tried in a fixed order; the first success wins.
type parseStrategy func(string) (parsedName, bool)

// splitFirstSpace parses "First Rest" on the first space.
func splitFirstSpace(s string) (parsedName, bool) {
	s = strings.TrimSpace(s)
	i := strings.IndexByte(s, ' ')
	if i <= 0 {
		return parsedName{}, false
	}
	first := strings.TrimSpace(s[:i])
	last := strings.TrimSpace(s[i+1:])
	if first == "" || last == "" {
		return parsedName{}, false
	}
	return parsedName{First: first, Last: last}, true
}

// splitCommaReversed parses "Last, First" and reverses the order.
func splitCommaReversed(s string) (parsedName, bool) {
	s = strings.TrimSpace(s)
	i := strings.Index(s, ", ")
	if i <= 0 {
		return parsedName{}, false
	}
	last := strings.TrimSpace(s[:i])
	first := strings.TrimSpace(s[i+2:])
	if first == "" || last == "" {
		return parsedName{}, false
	}
	return parsedName{First: first, Last: last}, true
}

// wholeAsFirst takes the whole string as a first name with no last name.
func wholeAsFirst(s string) (parsedName, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return parsedName{}, false
	}
	return parsedName{First: s}, true
}

// lookupStrategies are the heuristics tried against the legacy table.
var lookupStrategies = []parseStrategy{splitFirstSpace, splitCommaReversed}

// creationStrategies additionally fall back to the whole string as first name.
var creationStrategies = []parseStrategy{splitFirstSpace, splitCommaReversed, wholeAsFirst}

// multiNameSeparators is the fixed ordered list tested when a cell may hold
// several names ("Franco Fiorellino/Matteo Signo"). First separator that
// yields two or more non-empty parts wins.
var multiNameSeparators = []string{"/", ",", ";", "&", "+", " e ", " and ", " with ", " con "}

// splitMultiName returns the trimmed sub-names if any separator applies, or
// nil when the cell holds a single name.
func splitMultiName(s string) []string {
	for _, sep := range multiNameSeparators {
		if !strings.Contains(s, sep) {
			continue
		}
		raw := strings.Split(s, sep)
		parts := make([]string, 0, len(raw))
		for _, p := range raw {
			if t := strings.TrimSpace(p); t != "" {
				parts = append(parts, t)
			}
		}
		if len(parts) >= 2 {
			return parts
		}
	}
	return nil
}
