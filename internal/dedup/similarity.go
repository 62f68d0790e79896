package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/garnizeh/worklog/internal/textutil"
	"github.com/garnizeh/worklog/pkg/models"
)

// maxDescriptionRunes caps each description side before edit-distance scoring.
const maxDescriptionRunes = 255

// similarity weights; must sum to 1.
const (
	weightDuration    = 0.3
	weightDescription = 0.4
	weightTicket      = 0.3
)

// ContentHash derives the exact-match fingerprint from (employee, start,
// duration, ticket). The tuple is sorted before hashing so field order cannot
// change the digest.
func ContentHash(a *models.ActivityRecord) string {
	parts := []string{
		fmt.Sprintf("emp:%d", a.EmployeeID),
		fmt.Sprintf("start:%d", a.Start.UTC().Unix()),
		fmt.Sprintf("dur:%.4f", a.DurationHours),
		fmt.Sprintf("ticket:%s", strings.TrimSpace(a.TicketID)),
	}
	sort.Strings(parts)
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// similarity scores how likely two records describe the same real-world
// event: duration closeness (a >10% relative gap zeroes the term),
// description edit distance, and ticket-id equality.
func similarity(candidate, existing *models.ActivityRecord) float64 {
	score := weightDuration*durationSimilarity(candidate.DurationHours, existing.DurationHours) +
		weightDescription*textutil.Similarity(candidate.Description, existing.Description, maxDescriptionRunes) +
		weightTicket*ticketSimilarity(candidate.TicketID, existing.TicketID)
	if score > 1.0 {
		score = 1.0
	}
	return score
}

func durationSimilarity(d1, d2 float64) float64 {
	max := math.Max(d1, d2)
	if max == 0 {
		return 1.0
	}
	return math.Max(0, 1.0-(math.Abs(d1-d2)/max)*10)
}

func ticketSimilarity(t1, t2 string) float64 {
	t1 = strings.TrimSpace(t1)
	t2 = strings.TrimSpace(t2)
	if strings.EqualFold(t1, t2) {
		return 1.0
	}
	return 0.0
}
