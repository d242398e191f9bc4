package timeutil

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDateTimeJSONRoundTrip(t *testing.T) {
	dt := NewDateTime(time.Date(2026, 8, 28, 6, 30, 15, 999, time.UTC))

	data, err := json.Marshal(dt)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if string(data) != `"2026-08-28T06:30:15Z"` {
		t.Fatalf("unexpected JSON: %s", data)
	}

	var parsed DateTime
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if !parsed.Equal(dt.Time) {
		t.Fatalf("round trip mismatch: %s != %s", parsed, dt)
	}
}

func TestDateTimeTruncatesToSecond(t *testing.T) {
	dt := NewDateTime(time.Date(2026, 8, 28, 6, 30, 15, 500_000_000, time.UTC))
	if dt.Nanosecond() != 0 {
		t.Fatalf("expected truncation to the second, got %d ns", dt.Nanosecond())
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-09-01")
	if err != nil {
		t.Fatalf("ParseDate error: %v", err)
	}
	if d.String() != "2026-09-01" {
		t.Fatalf("unexpected date: %s", d)
	}

	if _, err := ParseDate("01.09.2026"); err == nil {
		t.Fatal("expected an error for a non ISO date")
	}
}

func TestToDate(t *testing.T) {
	dt := NewDateTime(time.Date(2026, 8, 28, 23, 59, 59, 0, time.UTC))
	d := dt.ToDate()
	if d.String() != "2026-08-28" {
		t.Fatalf("unexpected date: %s", d)
	}
	if !d.Equal(time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("time component not dropped: %v", d.Time)
	}
}
