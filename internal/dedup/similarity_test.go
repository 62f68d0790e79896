package dedup

import (
	"testing"
	"time"

	"github.com/garnizeh/worklog/pkg/models"
)

func activityAt(start time.Time, duration float64, description, ticket string) *models.ActivityRecord {
	return &models.ActivityRecord{
		EmployeeID:    1,
		Start:         start,
		End:           start.Add(time.Duration(duration * float64(time.Hour))),
		DurationHours: duration,
		Description:   description,
		TicketID:      ticket,
	}
}

func TestContentHashStability(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	a := activityAt(start, 2.5, "descriptions do not matter here", "T-100")
	b := activityAt(start, 2.5, "a completely different text", "T-100")

	if ContentHash(a) != ContentHash(b) {
		t.Error("hash should ignore the description")
	}

	c := activityAt(start, 2.5, "", "T-101")
	if ContentHash(a) == ContentHash(c) {
		t.Error("hash should change with the ticket id")
	}

	d := activityAt(start.Add(time.Minute), 2.5, "", "T-100")
	if ContentHash(a) == ContentHash(d) {
		t.Error("hash should change with the start time")
	}
}

func TestSimilarityNearDuplicate(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	a := activityAt(start, 2.0, "Aggiornamento server di produzione", "")
	b := activityAt(start.Add(2*time.Minute), 2.1, "Aggiornamento server di produzione", "")

	got := similarity(a, b)
	if got < 0.8 {
		t.Errorf("close starts, 5%% duration gap and identical description should score >= 0.8, got %v", got)
	}
}

func TestSimilarityUnrelated(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	a := activityAt(start, 2.0, "Backup notturno NAS", "T-1")
	b := activityAt(start, 8.0, "Sopralluogo cantiere cliente", "T-9")

	if got := similarity(a, b); got >= 0.5 {
		t.Errorf("unrelated records should score low, got %v", got)
	}
}

func TestDurationSimilarity(t *testing.T) {
	cases := []struct {
		d1, d2 float64
		want   float64
	}{
		{2, 2, 1},
		{0, 0, 1},
		{2, 2.2, 0}, // 10% relative gap zeroes the term
		{2, 4, 0},
	}
	for _, c := range cases {
		got := durationSimilarity(c.d1, c.d2)
		if (c.want == 0 && got > 1e-9) || (c.want == 1 && got != 1) {
			t.Errorf("durationSimilarity(%v, %v) = %v, want %v", c.d1, c.d2, got, c.want)
		}
	}
}

func TestTicketSimilarity(t *testing.T) {
	if ticketSimilarity("", "") != 1.0 {
		t.Error("two empty tickets should count as equal")
	}
	if ticketSimilarity(" t-1 ", "T-1") != 1.0 {
		t.Error("ticket comparison should be case- and space-insensitive")
	}
	if ticketSimilarity("T-1", "T-2") != 0.0 {
		t.Error("different tickets should score zero")
	}
}
