package clock

import (
	"testing"
	"time"
)

func TestStampOf(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("zoneinfo unavailable: %v", err)
	}
	at := time.Date(2025, 9, 10, 15, 45, 7, 123_000_000, ny)

	s := StampOf(at)

	if s.ISO != "2025-09-10T19:45:07.123Z" {
		t.Errorf("ISO = %q", s.ISO)
	}
	if s.Date != "9/10/2025" {
		t.Errorf("Date = %q", s.Date)
	}
	if s.Time != "3:45:07 PM" {
		t.Errorf("Time = %q", s.Time)
	}
	if s.Timezone != "America/New_York" {
		t.Errorf("Timezone = %q", s.Timezone)
	}
	if s.Timestamp != at.UnixMilli() {
		t.Errorf("Timestamp = %d", s.Timestamp)
	}
}

func TestFilenameDates(t *testing.T) {
	at := time.Date(2025, 9, 4, 23, 30, 0, 0, time.FixedZone("UTC-5", -5*3600))

	// local date, even though UTC has already rolled over
	if got := FilenameDate(at); got != "090425" {
		t.Errorf("FilenameDate = %q, want 090425", got)
	}
}

func TestFixedClock(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := Fixed{T: at}
	if !c.Now().Equal(at) {
		t.Fatalf("Now() = %v", c.Now())
	}
	if Now(c).Timezone != "UTC" {
		t.Fatalf("Timezone = %q", Now(c).Timezone)
	}
}

func TestZoneName(t *testing.T) {
	if got := ZoneName(nil); got != "UTC" {
		t.Errorf("ZoneName(nil) = %q", got)
	}
	if got := ZoneName(time.UTC); got != "UTC" {
		t.Errorf("ZoneName(UTC) = %q", got)
	}

	t.Setenv("TZ", "Europe/Rome")
	if got := ZoneName(time.Local); got != "Europe/Rome" {
		t.Errorf("ZoneName(Local) = %q, want TZ value", got)
	}
}

func TestSystemClockUsesLocation(t *testing.T) {
	c := System{Location: time.UTC}
	if c.Now().Location() != time.UTC {
		t.Fatalf("expected UTC location")
	}
}
