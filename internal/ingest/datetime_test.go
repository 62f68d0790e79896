package ingest

import (
	"testing"
	"time"
)

func TestParseDateTimeFormats(t *testing.T) {
	want := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	for _, in := range []string{
		"02/03/2026 09:30",
		"02/03/2026 09:30:00",
		"2026-03-02 09:30",
		"2026-03-02T09:30:00",
	} {
		got, err := ParseDateTime(in)
		if err != nil {
			t.Errorf("ParseDateTime(%q): %v", in, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("ParseDateTime(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseDate(t *testing.T) {
	for _, in := range []string{"02/03/2026", "2026-03-02", "02-03-2026", "02.03.2026"} {
		got, err := ParseDate(in)
		if err != nil {
			t.Errorf("ParseDate(%q): %v", in, err)
			continue
		}
		if got != "2026-03-02" {
			t.Errorf("ParseDate(%q) = %q", in, got)
		}
	}

	if _, err := ParseDate("not a date"); err == nil {
		t.Error("garbage should not parse")
	}
	if _, err := ParseDate(""); err == nil {
		t.Error("empty string should not parse")
	}
}

func TestParseClock(t *testing.T) {
	got, err := ParseClock("2026-03-02", "17:30")
	if err != nil {
		t.Fatalf("parse clock: %v", err)
	}
	want := time.Date(2026, 3, 2, 17, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("ParseClock = %v, want %v", got, want)
	}

	if _, err := ParseClock("2026-03-02", "venticinque"); err == nil {
		t.Error("garbage time should not parse")
	}
}

func TestParseFloat(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"2,5", 2.5},
		{"2.5", 2.5},
		{" 8 ", 8},
	}
	for _, c := range cases {
		got, err := ParseFloat(c.in)
		if err != nil {
			t.Errorf("ParseFloat(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseFloat(%q) = %v, want %v", c.in, got, c.want)
		}
	}
	if _, err := ParseFloat(""); err == nil {
		t.Error("empty string should not parse")
	}
}
