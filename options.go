package mysqldump

import (
	"fmt"
	"slices"
)

// KeepData restricts row emission for one table to the rows whose
// column value appears in Rows.
type KeepData struct {
	Column string
	Rows   []string
}

// Options is the frozen per-dump configuration. Construct it with
// DefaultOptions or NewOptions; the dump engine never mutates it after
// the session starts.
type Options struct {
	IncludeTables []string
	ExcludeTables []string
	IncludeViews  []string

	NoData       bool
	NoDataTables []string
	KeepData     map[string]KeepData
	Where        string

	Compress            string
	DefaultCharacterSet string
	InitCommands        []string

	ResetAutoIncrement bool
	AddDropDatabase    bool
	AddDropTable       bool
	AddDropTrigger     bool
	AddLocks           bool
	LockTables         bool
	CompleteInsert     bool
	Databases          bool
	DisableKeys        bool
	ExtendedInsert     bool
	Events             bool
	HexBlob            bool
	InsertIgnore       bool
	NetBufferLength    int
	NoAutocommit       bool
	NoCreateInfo       bool
	Routines           bool
	SingleTransaction  bool
	SkipTriggers       bool
	SkipTzUTC          bool
	SkipComments       bool
	SkipDumpDate       bool
	SkipDefiner        bool
}

// DefaultOptions returns the option set with every key at its default.
func DefaultOptions() *Options {
	return &Options{
		Compress:            CompressNone,
		DefaultCharacterSet: "utf8",
		AddDropTrigger:      true,
		AddLocks:            true,
		LockTables:          true,
		DisableKeys:         true,
		ExtendedInsert:      true,
		HexBlob:             true,
		NetBufferLength:     1000000,
		NoAutocommit:        true,
		SingleTransaction:   true,
	}
}

// NewOptions builds an option set from a settings map, applying defaults
// for absent keys. Unknown keys and wrongly typed values are rejected.
// When include-views is not given it is seeded from include-tables.
func NewOptions(settings map[string]any) (*Options, error) {
	opts := DefaultOptions()
	includeViewsSet := false

	for key, val := range settings {
		var err error
		switch key {
		case "include-tables":
			opts.IncludeTables, err = stringListValue(key, val)
		case "exclude-tables":
			opts.ExcludeTables, err = stringListValue(key, val)
		case "include-views":
			opts.IncludeViews, err = stringListValue(key, val)
			includeViewsSet = true
		case "no-data":
			// Accepts a bool (skip all data) or a list of table names.
			switch v := val.(type) {
			case bool:
				opts.NoData = v
			case []string:
				opts.NoDataTables = v
			default:
				err = typeError(key, "bool or []string", val)
			}
		case "keep-data":
			m, ok := val.(map[string]KeepData)
			if !ok {
				err = typeError(key, "map[string]KeepData", val)
				break
			}
			opts.KeepData = m
		case "where":
			opts.Where, err = stringValue(key, val)
		case "compress":
			opts.Compress, err = stringValue(key, val)
		case "default-character-set":
			opts.DefaultCharacterSet, err = stringValue(key, val)
		case "init_commands":
			opts.InitCommands, err = stringListValue(key, val)
		case "reset-auto-increment":
			opts.ResetAutoIncrement, err = boolValue(key, val)
		case "add-drop-database":
			opts.AddDropDatabase, err = boolValue(key, val)
		case "add-drop-table":
			opts.AddDropTable, err = boolValue(key, val)
		case "add-drop-trigger":
			opts.AddDropTrigger, err = boolValue(key, val)
		case "add-locks":
			opts.AddLocks, err = boolValue(key, val)
		case "lock-tables":
			opts.LockTables, err = boolValue(key, val)
		case "complete-insert":
			opts.CompleteInsert, err = boolValue(key, val)
		case "databases":
			opts.Databases, err = boolValue(key, val)
		case "disable-keys":
			opts.DisableKeys, err = boolValue(key, val)
		case "extended-insert":
			opts.ExtendedInsert, err = boolValue(key, val)
		case "events":
			opts.Events, err = boolValue(key, val)
		case "hex-blob":
			opts.HexBlob, err = boolValue(key, val)
		case "insert-ignore":
			opts.InsertIgnore, err = boolValue(key, val)
		case "net_buffer_length":
			opts.NetBufferLength, err = intValue(key, val)
		case "no-autocommit":
			opts.NoAutocommit, err = boolValue(key, val)
		case "no-create-info":
			opts.NoCreateInfo, err = boolValue(key, val)
		case "routines":
			opts.Routines, err = boolValue(key, val)
		case "single-transaction":
			opts.SingleTransaction, err = boolValue(key, val)
		case "skip-triggers":
			opts.SkipTriggers, err = boolValue(key, val)
		case "skip-tz-utc":
			opts.SkipTzUTC, err = boolValue(key, val)
		case "skip-comments":
			opts.SkipComments, err = boolValue(key, val)
		case "skip-dump-date":
			opts.SkipDumpDate, err = boolValue(key, val)
		case "skip-definer":
			opts.SkipDefiner, err = boolValue(key, val)
		default:
			return nil, &ConfigError{Field: key, Message: "unknown option"}
		}
		if err != nil {
			return nil, err
		}
	}

	if !includeViewsSet {
		opts.IncludeViews = slices.Clone(opts.IncludeTables)
	}
	if opts.NetBufferLength <= 0 {
		return nil, &ConfigError{Field: "net_buffer_length", Message: "must be positive"}
	}
	if _, err := newSink(opts.Compress); err != nil {
		return nil, err
	}
	return opts, nil
}

func stringValue(key string, val any) (string, error) {
	s, ok := val.(string)
	if !ok {
		return "", typeError(key, "string", val)
	}
	return s, nil
}

func stringListValue(key string, val any) ([]string, error) {
	l, ok := val.([]string)
	if !ok {
		return nil, typeError(key, "[]string", val)
	}
	return l, nil
}

func boolValue(key string, val any) (bool, error) {
	b, ok := val.(bool)
	if !ok {
		return false, typeError(key, "bool", val)
	}
	return b, nil
}

func intValue(key string, val any) (int, error) {
	switch v := val.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	}
	return 0, typeError(key, "int", val)
}

func typeError(key, want string, val any) error {
	return &ConfigError{Field: key, Message: fmt.Sprintf("expected %s, got %T", want, val)}
}
