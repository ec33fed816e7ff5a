// Package ledger maintains a player's net-worth history: dated snapshots of
// asset and liability accounts with derived totals, kept newest first.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"fiquest/internal/clock"
	"fiquest/internal/core"
)

var (
	ErrNotFound     = errors.New("net worth entry not found")
	ErrInvalidEntry = errors.New("invalid net worth entry")
)

// EntryInput is what callers supply to create an entry. Totals are always
// derived, so any totals in decoded input are ignored.
type EntryInput struct {
	Date          string          `json:"date"`
	Accounts      *core.Accounts  `json:"accounts"`
	Notes         string          `json:"notes"`
	ProjectedData json.RawMessage `json:"projectedData"`
}

// Patch lists the mergeable fields of an entry. Nil fields keep their
// current value. ID and DateCreated cannot be patched.
type Patch struct {
	Date          *string
	Accounts      *core.Accounts
	Notes         *string
	ProjectedData json.RawMessage
}

// ImportResult counts the outcome of BulkImport.
type ImportResult struct {
	SuccessCount int `json:"success"`
	ErrorCount   int `json:"errors"`
}

// Ledger operates on a slice owned by someone else, normally the active
// profile's game data. It does no locking of its own.
type Ledger struct {
	entries *[]core.NetWorthEntry
	clock   clock.Clock
	newID   func(time.Time) string
}

type Option func(*Ledger)

// WithIDFunc replaces the entry id generator.
func WithIDFunc(f func(time.Time) string) Option {
	return func(l *Ledger) { l.newID = f }
}

// Wrap returns a Ledger over entries. A nil clock means the system clock.
func Wrap(entries *[]core.NetWorthEntry, clk clock.Clock, opts ...Option) *Ledger {
	if clk == nil {
		clk = clock.System{}
	}
	l := &Ledger{entries: entries, clock: clk, newID: NewEntryID}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewEntryID returns "nw_<unix millis>_<9 random characters>".
func NewEntryID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("nw_%d_%s", now.UnixMilli(), suffix)
}

// Add appends a new entry and re-sorts the ledger.
func (l *Ledger) Add(in EntryInput) (core.NetWorthEntry, error) {
	if in.Accounts == nil {
		return core.NetWorthEntry{}, fmt.Errorf("%w: accounts are required", ErrInvalidEntry)
	}

	stamp := clock.Now(l.clock)
	date := in.Date
	if date == "" {
		date = stamp.Date
	}
	projected := in.ProjectedData
	if core.IsNull(projected) {
		projected = nil
	}

	accounts := in.Accounts.Clone()
	entry := core.NetWorthEntry{
		ID:            l.newID(l.clock.Now()),
		Date:          date,
		DateCreated:   stamp.ISO,
		Timezone:      stamp.Timezone,
		Accounts:      accounts,
		Totals:        ComputeTotals(accounts),
		Notes:         in.Notes,
		ProjectedData: projected,
	}

	*l.entries = append(*l.entries, entry)
	SortEntries(*l.entries)
	return entry.Clone(), nil
}

// Update merges patch into the entry with the given id and recomputes its
// totals from the resulting accounts.
func (l *Ledger) Update(id string, patch Patch) (core.NetWorthEntry, error) {
	idx := l.indexOf(id)
	if idx < 0 {
		return core.NetWorthEntry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	entry := (*l.entries)[idx]
	if patch.Date != nil {
		entry.Date = *patch.Date
	}
	if patch.Accounts != nil {
		entry.Accounts = patch.Accounts.Clone()
	}
	if patch.Notes != nil {
		entry.Notes = *patch.Notes
	}
	if patch.ProjectedData != nil {
		entry.ProjectedData = append(json.RawMessage(nil), patch.ProjectedData...)
	}
	entry.DateModified = clock.Now(l.clock).ISO
	entry.Totals = ComputeTotals(entry.Accounts)

	(*l.entries)[idx] = entry
	SortEntries(*l.entries)
	return entry.Clone(), nil
}

// Delete removes the entry with the given id and reports whether it existed.
func (l *Ledger) Delete(id string) bool {
	idx := l.indexOf(id)
	if idx < 0 {
		return false
	}
	*l.entries = append((*l.entries)[:idx], (*l.entries)[idx+1:]...)
	SortEntries(*l.entries)
	return true
}

// List returns a deep copy of the entries, newest first.
func (l *Ledger) List() []core.NetWorthEntry {
	out := make([]core.NetWorthEntry, len(*l.entries))
	for i, e := range *l.entries {
		out[i] = e.Clone()
	}
	return out
}

// Latest returns the newest entry.
func (l *Ledger) Latest() (core.NetWorthEntry, bool) {
	if len(*l.entries) == 0 {
		return core.NetWorthEntry{}, false
	}
	return (*l.entries)[0].Clone(), true
}

func (l *Ledger) Len() int {
	return len(*l.entries)
}

// BulkImport adds each input in turn. A bad item is counted and skipped.
func (l *Ledger) BulkImport(inputs []EntryInput) ImportResult {
	var res ImportResult
	for _, in := range inputs {
		if _, err := l.Add(in); err != nil {
			res.ErrorCount++
			continue
		}
		res.SuccessCount++
	}
	return res
}

func (l *Ledger) indexOf(id string) int {
	for i, e := range *l.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}
