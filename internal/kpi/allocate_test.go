package kpi

import (
	"math"
	"testing"
	"time"
)

func TestAllocateHoursSameDay(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	got := AllocateHours(start, start.Add(3*time.Hour), 3)
	if len(got) != 1 || got["2026-03-02"] != 3 {
		t.Errorf("same-day interval should keep the whole duration, got %v", got)
	}
}

func TestAllocateHoursMultiDay(t *testing.T) {
	// 28 hour span: 4h on the first day, a full interior day, nothing on the
	// boundary day
	start := time.Date(2026, 3, 2, 20, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)

	got := AllocateHours(start, end, 28)
	if len(got) != 2 {
		t.Fatalf("expected 2 allocated days, got %v", got)
	}
	if math.Abs(got["2026-03-02"]-4) > 1e-9 {
		t.Errorf("first day should get 4h, got %v", got["2026-03-02"])
	}
	if math.Abs(got["2026-03-03"]-24) > 1e-9 {
		t.Errorf("interior day should get 24h, got %v", got["2026-03-03"])
	}
}

func TestAllocateHoursScalesBilledDuration(t *testing.T) {
	// 14h billed over a 28h span keeps the per-day proportions
	start := time.Date(2026, 3, 2, 20, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)

	got := AllocateHours(start, end, 14)
	if math.Abs(got["2026-03-02"]-2) > 1e-9 || math.Abs(got["2026-03-03"]-12) > 1e-9 {
		t.Errorf("billed shares should scale with the span fraction, got %v", got)
	}

	var sum float64
	for _, v := range got {
		sum += v
	}
	if math.Abs(sum-14) > 1e-9 {
		t.Errorf("shares should sum to the billed duration, got %v", sum)
	}
}

func TestAllocateHoursZeroSpan(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	got := AllocateHours(start, start, 1.5)
	if got["2026-03-02"] != 1.5 {
		t.Errorf("degenerate interval should land on the start day, got %v", got)
	}
}

func TestOverlapHours(t *testing.T) {
	dayStart := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)

	if got := overlapHours(dayStart.Add(9*time.Hour), dayStart.Add(12*time.Hour), dayStart, dayEnd); got != 3 {
		t.Errorf("inside interval = %v, want 3", got)
	}
	if got := overlapHours(dayStart.Add(-2*time.Hour), dayStart.Add(2*time.Hour), dayStart, dayEnd); got != 2 {
		t.Errorf("clipped start = %v, want 2", got)
	}
	if got := overlapHours(dayEnd, dayEnd.Add(time.Hour), dayStart, dayEnd); got != 0 {
		t.Errorf("outside interval = %v, want 0", got)
	}
}
