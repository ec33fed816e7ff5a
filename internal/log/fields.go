package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldError     = "error"
	FieldErrorType = "error_type"
	FieldOperation = "operation"
	FieldSuccess   = "success"
	FieldPlayer    = "player"
	FieldKey       = "key"
	FieldEntryID   = "entry_id"
	FieldFormat    = "format"
	FieldFilename  = "filename"
	FieldStrategy  = "strategy"
	FieldBackupKey = "backup_key"
	FieldVersion   = "version"
	FieldBytes     = "bytes"
	FieldCount     = "count"
	FieldTrigger   = "trigger"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentCLI      = "cli"
	ComponentSession  = "session"
	ComponentLedger   = "ledger"
	ComponentCodec    = "codec"
	ComponentDelivery = "delivery"
	ComponentStorage  = "storage"
	ComponentCache    = "cache"
	ComponentAutosave = "autosave"
	ComponentBackend  = "backend"
	ComponentSaveFile = "save_file"
)

// Operations defines standard operation names
const (
	OpLoad     = "load"
	OpSave     = "save"
	OpCreate   = "create"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpImport   = "import"
	OpExport   = "export"
	OpBackup   = "backup"
	OpRestore  = "restore"
	OpDeliver  = "deliver"
	OpClear    = "clear"
	OpValidate = "validate"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation = "validation_error"
	ErrorTypeDecode     = "decode_error"
	ErrorTypeStorage    = "storage_error"
	ErrorTypeNotFound   = "not_found_error"
	ErrorTypeDelivery   = "delivery_error"
	ErrorTypeInternal   = "internal_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithErrorType adds the error category
func (f LogFields) WithErrorType(kind string) LogFields {
	f[FieldErrorType] = kind
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithPlayer adds the player name
func (f LogFields) WithPlayer(name string) LogFields {
	f[FieldPlayer] = name
	return f
}

// WithDelivery adds save-file delivery fields
func (f LogFields) WithDelivery(strategy, filename string, success bool) LogFields {
	f[FieldStrategy] = strategy
	f[FieldFilename] = filename
	f[FieldSuccess] = success
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
