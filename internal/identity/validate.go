package identity

import (
	"strings"
	"unicode"

	"github.com/garnizeh/worklog/internal/textutil"
)

// nameBlacklist collects strings that show up in name columns but never denote
// a person: fleet vehicle models, test/system tokens, generic business terms.
var nameBlacklist = map[string]struct{}{
	"punto":       {},
	"panda":       {},
	"fiorino":     {},
	"ducato":      {},
	"doblo":       {},
	"furgone":     {},
	"auto":        {},
	"test":        {},
	"prova":       {},
	"admin":       {},
	"system":      {},
	"sistema":     {},
	"ufficio":     {},
	"magazzino":   {},
	"azienda":     {},
	"cliente":     {},
	"fornitore":   {},
	"generico":    {},
	"sconosciuto": {},
	"unknown":     {},
	"office":      {},
	"interno":     {},
	"vari":        {},
	"varie":       {},
}

var hostnamePrefixes = []string{"pc", "nb", "server", "host", "www", "http", "ftp"}

var domainSuffixes = []string{".com", ".it", ".org", ".net", ".gov"}

// IsValidName reports whether name can denote a person. All checks are
// case-insensitive. An empty name is accepted only when allowEmpty is set
// (used for stand-alone last names).
func (r *Resolver) IsValidName(name string, allowEmpty bool) bool {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return allowEmpty
	}

	normalized := textutil.Normalize(trimmed)

	if _, blacklisted := nameBlacklist[normalized]; blacklisted {
		return false
	}
	if r.cache != nil && r.cache.HasVehicle(normalized) {
		return false
	}

	runes := []rune(trimmed)
	if len(runes) < 2 || len(runes) > 50 {
		return false
	}
	if strings.ContainsRune(trimmed, '@') {
		return false
	}
	if allDigits(trimmed) {
		return false
	}

	first := runes[0]
	if !unicode.IsLetter(first) && first != '\'' && first != '-' {
		return false
	}

	lower := strings.ToLower(trimmed)
	for _, p := range hostnamePrefixes {
		if !strings.HasPrefix(lower, p) {
			continue
		}
		// only the hostname shape is rejected: the bare token or the
		// prefix followed by a digit or separator ("pc01", "nb-13");
		// surnames like "Hostettler" pass
		rest := lower[len(p):]
		if rest == "" || rest[0] == '-' || rest[0] == '_' || rest[0] == '.' || (rest[0] >= '0' && rest[0] <= '9') {
			return false
		}
	}
	for _, s := range domainSuffixes {
		if strings.HasSuffix(lower, s) {
			return false
		}
	}

	return true
}

func allDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(s) > 0
}
