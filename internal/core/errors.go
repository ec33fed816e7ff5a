package core

import "errors"

var (
	// ErrNoPlayer is returned by operations that need an active player.
	ErrNoPlayer = errors.New("no player logged in")
	// ErrUnsupportedFormat is returned for export formats that do not exist.
	ErrUnsupportedFormat = errors.New("unsupported export format")
)

// Export formats.
const (
	FormatJSON  = "json"
	FormatCSV   = "csv"
	FormatExcel = "excel"
	FormatText  = "txt"
)

// ContentType maps an export format to the MIME type used when the file is
// handed to the host.
func ContentType(format string) string {
	switch format {
	case FormatJSON:
		return "application/json"
	case FormatCSV:
		return "text/csv"
	default:
		return "text/plain"
	}
}
