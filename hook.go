package mysqldump

// RowHook transforms a single cell before it is encoded. It receives
// the table, the column name, the cell value, and the full row keyed by
// column name. The returned value may change type; encoding stays
// driven by the column descriptor, so a hook cannot re-classify the
// column. A nil hook is the identity and costs nothing per row.
type RowHook func(table, column string, value any, row map[string]any) any
