package ledger

import (
	"sort"
	"strconv"
	"strings"

	"fiquest/internal/core"
)

var csvHeaders = []string{
	"Date", "Total Assets", "Total Liabilities", "Net Worth",
	"Projected Net Worth", "Net Variance", "Notes",
}

// ExportCSV renders the entries as CSV with summary columns followed by
// <account>_actual, <account>_projected and <account>_variance for every
// account of the first entry. Fields are wrapped in double quotes without
// escaping embedded quotes. An empty ledger renders as "".
func ExportCSV(entries []core.NetWorthEntry) string {
	if len(entries) == 0 {
		return ""
	}

	assetNames := sortedNames(entries[0].Accounts.Assets)
	liabilityNames := sortedNames(entries[0].Accounts.Liabilities)

	header := append([]string(nil), csvHeaders...)
	for _, name := range append(append([]string(nil), assetNames...), liabilityNames...) {
		header = append(header, name+"_actual", name+"_projected", name+"_variance")
	}

	rows := make([]string, 0, len(entries)+1)
	rows = append(rows, quoteRow(header))
	for _, e := range entries {
		row := []string{
			e.Date,
			FormatNumber(e.Totals.TotalAssets),
			FormatNumber(e.Totals.TotalLiabilities),
			FormatNumber(e.Totals.NetWorth),
			FormatNumber(e.Totals.ProjectedNetWorth),
			FormatNumber(e.Totals.NetVariance),
			e.Notes,
		}
		row = appendAccounts(row, e.Accounts.Assets, assetNames)
		row = appendAccounts(row, e.Accounts.Liabilities, liabilityNames)
		rows = append(rows, quoteRow(row))
	}
	return strings.Join(rows, "\n")
}

func appendAccounts(row []string, accounts map[string]core.AccountValue, names []string) []string {
	for _, name := range names {
		v, ok := accounts[name]
		if !ok {
			row = append(row, "", "", "")
			continue
		}
		row = append(row, FormatNumber(v.Actual), FormatNumber(v.Projected), FormatNumber(v.Variance()))
	}
	return row
}

// SummaryRow is one line of the workbook summary sheet.
type SummaryRow struct {
	Date              string  `json:"Date"`
	TotalAssets       float64 `json:"Total Assets"`
	TotalLiabilities  float64 `json:"Total Liabilities"`
	NetWorth          float64 `json:"Net Worth"`
	ProjectedNetWorth float64 `json:"Projected Net Worth"`
	Variance          float64 `json:"Variance"`
	Notes             string  `json:"Notes"`
}

// AccountRow is one account of one entry.
type AccountRow struct {
	Date      string  `json:"Date"`
	Type      string  `json:"Type"`
	Account   string  `json:"Account"`
	Actual    float64 `json:"Actual"`
	Projected float64 `json:"Projected"`
	Variance  float64 `json:"Variance"`
}

type SummarySheet struct {
	Title string       `json:"title"`
	Data  []SummaryRow `json:"data"`
}

type DetailSheet struct {
	Title string       `json:"title"`
	Data  []AccountRow `json:"data"`
}

// Workbook is spreadsheet-shaped ledger data, ready for an xlsx writer.
type Workbook struct {
	Summary  SummarySheet `json:"summary"`
	Detailed DetailSheet  `json:"detailed"`
}

const (
	AccountTypeAsset     = "Asset"
	AccountTypeLiability = "Liability"
)

// ExportWorkbook builds the summary and account-level sheets.
func ExportWorkbook(entries []core.NetWorthEntry) Workbook {
	wb := Workbook{
		Summary:  SummarySheet{Title: "Net Worth Tracking Summary", Data: []SummaryRow{}},
		Detailed: DetailSheet{Title: "Account-Level Details", Data: Flatten(entries)},
	}
	for _, e := range entries {
		wb.Summary.Data = append(wb.Summary.Data, SummaryRow{
			Date:              e.Date,
			TotalAssets:       e.Totals.TotalAssets,
			TotalLiabilities:  e.Totals.TotalLiabilities,
			NetWorth:          e.Totals.NetWorth,
			ProjectedNetWorth: e.Totals.ProjectedNetWorth,
			Variance:          e.Totals.NetVariance,
			Notes:             e.Notes,
		})
	}
	return wb
}

// Flatten lists every account of every entry, assets before liabilities,
// accounts by name.
func Flatten(entries []core.NetWorthEntry) []AccountRow {
	rows := []AccountRow{}
	for _, e := range entries {
		rows = appendFlat(rows, e.Date, AccountTypeAsset, e.Accounts.Assets)
		rows = appendFlat(rows, e.Date, AccountTypeLiability, e.Accounts.Liabilities)
	}
	return rows
}

func appendFlat(rows []AccountRow, date, kind string, accounts map[string]core.AccountValue) []AccountRow {
	for _, name := range sortedNames(accounts) {
		v := accounts[name]
		rows = append(rows, AccountRow{
			Date:      date,
			Type:      kind,
			Account:   name,
			Actual:    v.Actual,
			Projected: v.Projected,
			Variance:  v.Variance(),
		})
	}
	return rows
}

// FormatNumber prints n the shortest way that round-trips, without an exponent.
func FormatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func quoteRow(fields []string) string {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(f)
		b.WriteByte('"')
	}
	return b.String()
}

func sortedNames(m map[string]core.AccountValue) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
