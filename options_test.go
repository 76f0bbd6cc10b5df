package mysqldump

import (
	"errors"
	"testing"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	if !opts.ExtendedInsert || !opts.HexBlob || !opts.AddLocks || !opts.LockTables ||
		!opts.DisableKeys || !opts.NoAutocommit || !opts.SingleTransaction || !opts.AddDropTrigger {
		t.Errorf("defaults wrong: %+v", opts)
	}
	if opts.NetBufferLength != 1000000 {
		t.Errorf("NetBufferLength = %d, want 1000000", opts.NetBufferLength)
	}
	if opts.DefaultCharacterSet != "utf8" {
		t.Errorf("DefaultCharacterSet = %q, want utf8", opts.DefaultCharacterSet)
	}
	if opts.Databases || opts.Routines || opts.Events || opts.CompleteInsert {
		t.Errorf("defaults wrong: %+v", opts)
	}
}

func TestNewOptions(t *testing.T) {
	opts, err := NewOptions(map[string]any{
		"include-tables":    []string{"users"},
		"events":            true,
		"net_buffer_length": 512,
		"where":             "id > 10",
	})
	if err != nil {
		t.Fatalf("NewOptions() error: %v", err)
	}
	if len(opts.IncludeTables) != 1 || opts.IncludeTables[0] != "users" {
		t.Errorf("IncludeTables = %v", opts.IncludeTables)
	}
	if !opts.Events {
		t.Error("Events = false, want true")
	}
	if opts.NetBufferLength != 512 {
		t.Errorf("NetBufferLength = %d, want 512", opts.NetBufferLength)
	}
	if opts.Where != "id > 10" {
		t.Errorf("Where = %q", opts.Where)
	}
}

func TestNewOptionsRejectsUnknownKey(t *testing.T) {
	_, err := NewOptions(map[string]any{"add-drop-tables": true})
	if err == nil {
		t.Fatal("expected error for unknown key")
	}
	var cerr *ConfigError
	if !errors.As(err, &cerr) {
		t.Fatalf("error is %T, want *ConfigError", err)
	}
	if cerr.Field != "add-drop-tables" {
		t.Errorf("Field = %q, want add-drop-tables", cerr.Field)
	}
}

func TestNewOptionsRejectsWrongType(t *testing.T) {
	if _, err := NewOptions(map[string]any{"events": "yes"}); err == nil {
		t.Fatal("expected error for wrong value type")
	}
}

func TestNewOptionsNoDataForms(t *testing.T) {
	opts, err := NewOptions(map[string]any{"no-data": true})
	if err != nil {
		t.Fatalf("NewOptions() error: %v", err)
	}
	if !opts.NoData {
		t.Error("NoData = false, want true")
	}

	opts, err = NewOptions(map[string]any{"no-data": []string{"audit_log"}})
	if err != nil {
		t.Fatalf("NewOptions() error: %v", err)
	}
	if opts.NoData {
		t.Error("NoData = true, want false")
	}
	if len(opts.NoDataTables) != 1 || opts.NoDataTables[0] != "audit_log" {
		t.Errorf("NoDataTables = %v", opts.NoDataTables)
	}
}

func TestNewOptionsSeedsIncludeViews(t *testing.T) {
	opts, err := NewOptions(map[string]any{"include-tables": []string{"users", "v_active"}})
	if err != nil {
		t.Fatalf("NewOptions() error: %v", err)
	}
	if len(opts.IncludeViews) != 2 {
		t.Errorf("IncludeViews = %v, want seeded copy", opts.IncludeViews)
	}

	opts, err = NewOptions(map[string]any{
		"include-tables": []string{"users"},
		"include-views":  []string{"v_active"},
	})
	if err != nil {
		t.Fatalf("NewOptions() error: %v", err)
	}
	if len(opts.IncludeViews) != 1 || opts.IncludeViews[0] != "v_active" {
		t.Errorf("IncludeViews = %v, want [v_active]", opts.IncludeViews)
	}
}

func TestNewOptionsRejectsUnknownCodec(t *testing.T) {
	if _, err := NewOptions(map[string]any{"compress": "zstd"}); err == nil {
		t.Fatal("expected error for unknown codec")
	}
}

func TestNewOptionsKeepData(t *testing.T) {
	opts, err := NewOptions(map[string]any{
		"keep-data": map[string]KeepData{
			"users": {Column: "id", Rows: []string{"1", "2"}},
		},
	})
	if err != nil {
		t.Fatalf("NewOptions() error: %v", err)
	}
	if opts.KeepData["users"].Column != "id" {
		t.Errorf("KeepData = %+v", opts.KeepData)
	}
}
