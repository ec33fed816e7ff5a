// Package clock stamps records with the local date, time and timezone.
//
// Every persisted record carries an ISO-8601 UTC instant alongside the
// en-US local date and the IANA zone name, so save files stay readable when
// they move between devices in different zones.
package clock

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	isoLayout       = "2006-01-02T15:04:05.000Z"
	localDateLayout = "1/2/2006"
	localTimeLayout = "3:04:05 PM"
)

// Clock is the only source of "now" for the persistence layer.
type Clock interface {
	Now() time.Time
}

// System reads the host clock in Location (time.Local when nil).
type System struct {
	Location *time.Location
}

func (s System) Now() time.Time {
	if s.Location == nil {
		return time.Now()
	}
	return time.Now().In(s.Location)
}

// Fixed always returns T. Tests use it to pin stamps.
type Fixed struct {
	T time.Time
}

func (f Fixed) Now() time.Time { return f.T }

// Stamp is a point in time rendered the ways records need it.
type Stamp struct {
	ISO       string
	Date      string
	Time      string
	Timezone  string
	Timestamp int64
}

// StampOf renders t.
func StampOf(t time.Time) Stamp {
	return Stamp{
		ISO:       ISO(t),
		Date:      t.Format(localDateLayout),
		Time:      t.Format(localTimeLayout),
		Timezone:  ZoneName(t.Location()),
		Timestamp: t.UnixMilli(),
	}
}

// Now stamps the current time of c.
func Now(c Clock) Stamp {
	return StampOf(c.Now())
}

// ISO renders t as a millisecond-precision UTC instant.
func ISO(t time.Time) string {
	return t.UTC().Format(isoLayout)
}

// FilenameDate renders the local date as MMDDYY, e.g. "091025".
func FilenameDate(t time.Time) string {
	return t.Format("010206")
}

// ZoneName returns the IANA name of loc. time.Local reports itself as
// "Local", so the name is recovered from TZ or the /etc/localtime link.
func ZoneName(loc *time.Location) string {
	if loc == nil {
		return "UTC"
	}
	name := loc.String()
	if name != "Local" {
		return name
	}
	if tz := strings.TrimPrefix(os.Getenv("TZ"), ":"); tz != "" {
		return tz
	}
	if target, err := filepath.EvalSymlinks("/etc/localtime"); err == nil {
		if i := strings.Index(target, "zoneinfo/"); i >= 0 {
			return target[i+len("zoneinfo/"):]
		}
	}
	return "UTC"
}
