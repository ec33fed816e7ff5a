package session

import (
	"fmt"

	"fiquest/internal/core"
	"fiquest/internal/ledger"
	applog "fiquest/internal/log"
)

// Ledger operations apply to the in-memory profile first and then save.
// When the save fails the change is kept in memory and the error is
// returned alongside the result; the next successful save persists it.

func (m *Manager) ledgerLocked() (*ledger.Ledger, error) {
	if m.current == nil {
		return nil, core.ErrNoPlayer
	}
	return ledger.Wrap(&m.current.GameData.NetWorthTracking, m.clock, m.ledgerOpts...), nil
}

func (m *Manager) AddEntry(in ledger.EntryInput) (core.NetWorthEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, err := m.ledgerLocked()
	if err != nil {
		return core.NetWorthEntry{}, err
	}
	e, err := l.Add(in)
	if err != nil {
		return core.NetWorthEntry{}, err
	}
	m.logger.Info("net worth entry added", applog.FieldEntryID, e.ID)
	return e, m.saveLocked()
}

func (m *Manager) UpdateEntry(id string, patch ledger.Patch) (core.NetWorthEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, err := m.ledgerLocked()
	if err != nil {
		return core.NetWorthEntry{}, err
	}
	e, err := l.Update(id, patch)
	if err != nil {
		return core.NetWorthEntry{}, err
	}
	m.logger.Info("net worth entry updated", applog.FieldEntryID, id)
	return e, m.saveLocked()
}

// DeleteEntry reports false for an unknown id.
func (m *Manager) DeleteEntry(id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, err := m.ledgerLocked()
	if err != nil {
		return false, err
	}
	if !l.Delete(id) {
		return false, nil
	}
	m.logger.Info("net worth entry deleted", applog.FieldEntryID, id)
	return true, m.saveLocked()
}

// Entries returns a copy of the ledger, newest first. Empty without a player.
func (m *Manager) Entries() []core.NetWorthEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, err := m.ledgerLocked()
	if err != nil {
		return []core.NetWorthEntry{}
	}
	return l.List()
}

func (m *Manager) LatestEntry() (core.NetWorthEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, err := m.ledgerLocked()
	if err != nil {
		return core.NetWorthEntry{}, false
	}
	return l.Latest()
}

// ImportEntries adds every valid input and saves once.
func (m *Manager) ImportEntries(inputs []ledger.EntryInput) (ledger.ImportResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, err := m.ledgerLocked()
	if err != nil {
		return ledger.ImportResult{}, err
	}
	res := l.BulkImport(inputs)
	m.logger.Info("net worth import completed", "successful", res.SuccessCount, "errors", res.ErrorCount)
	if res.SuccessCount == 0 {
		return res, nil
	}
	return res, m.saveLocked()
}

// ExportLedger renders the ledger as a JSON array, the ledger CSV, or the
// workbook JSON for the "excel" format.
func (m *Manager) ExportLedger(format string) (string, error) {
	entries := m.Entries()

	switch format {
	case core.FormatJSON:
		data, err := core.MarshalIndent(entries)
		if err != nil {
			return "", fmt.Errorf("encode entries: %w", err)
		}
		return string(data), nil
	case core.FormatCSV:
		return ledger.ExportCSV(entries), nil
	case core.FormatExcel:
		data, err := core.MarshalIndent(ledger.ExportWorkbook(entries))
		if err != nil {
			return "", fmt.Errorf("encode workbook: %w", err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("%w: %s", core.ErrUnsupportedFormat, format)
	}
}
