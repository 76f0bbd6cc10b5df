// Package mysqldump produces self-contained, re-playable SQL dumps of
// MySQL-compatible databases: schema DDL in dependency-safe order and
// row data as batched INSERT statements.
package mysqldump

import (
	"database/sql"
	"fmt"
	"io"
	"strings"
	"time"
)

// Dumper owns one dump session: the live connection, the sink, the
// frozen option set, the enumerated object lists, and the column-type
// cache.
type Dumper struct {
	dsn  *DSN
	opts *Options
	cat  catalog
	hook RowHook

	db   *sql.DB
	sink Sink

	tables     []string
	views      []string
	triggers   []string
	procedures []string
	events     []string

	columnCache map[string][]ColumnType

	includeTables *NameMatcher
	includeViews  *NameMatcher
	excludeTables *NameMatcher
	noDataTables  *NameMatcher

	version       string
	inTransaction bool
}

// NewDumper parses the connection string, resolves the dialect, and
// prepares a session with the given options (nil means defaults).
func NewDumper(dsnStr string, opts *Options) (*Dumper, error) {
	dsn, err := ParseDSN(dsnStr)
	if err != nil {
		return nil, err
	}
	return newDumper(dsn, opts)
}

func newDumper(dsn *DSN, opts *Options) (*Dumper, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	cat, err := newCatalog(dsn.Dialect)
	if err != nil {
		return nil, err
	}

	d := &Dumper{
		dsn:         dsn,
		opts:        opts,
		cat:         cat,
		columnCache: make(map[string][]ColumnType),
	}
	if d.includeTables, err = NewNameMatcher(opts.IncludeTables); err != nil {
		return nil, err
	}
	if d.includeViews, err = NewNameMatcher(opts.IncludeViews); err != nil {
		return nil, err
	}
	if d.excludeTables, err = NewNameMatcher(opts.ExcludeTables); err != nil {
		return nil, err
	}
	if d.noDataTables, err = NewNameMatcher(opts.NoDataTables); err != nil {
		return nil, err
	}
	return d, nil
}

// SetRowHook installs a per-cell transform applied before encoding.
func (d *Dumper) SetRowHook(h RowHook) {
	d.hook = h
}

// Start runs the dump, writing to path. An empty path selects standard
// output. The sink is closed best-effort when a stage fails.
func (d *Dumper) Start(path string) error {
	sink, err := newSink(d.opts.Compress)
	if err != nil {
		return err
	}
	if err := sink.Open(path); err != nil {
		return err
	}
	err = d.run(sink)
	cerr := sink.Close()
	if err != nil {
		return err
	}
	return cerr
}

// DumpTo runs the dump into a caller-owned writer.
func (d *Dumper) DumpTo(w io.Writer) error {
	return d.run(NewWriterSink(w))
}

func (d *Dumper) run(sink Sink) error {
	d.sink = sink

	if d.db == nil {
		db, err := d.cat.openDB(d.dsn, d.opts)
		if err != nil {
			return err
		}
		d.db = db
		defer func() {
			d.db.Close()
			d.db = nil
		}()
	}

	version, err := d.cat.serverVersion(d.db)
	if err != nil {
		return err
	}
	d.version = version

	if err := d.writeHeader(); err != nil {
		return err
	}
	if err := d.write(d.cat.backupParameters(d.opts)); err != nil {
		return err
	}
	if err := d.write("\n"); err != nil {
		return err
	}
	if err := d.exportDatabase(); err != nil {
		return err
	}
	if err := d.enumerate(); err != nil {
		return err
	}
	if err := d.validateIncludes(); err != nil {
		return err
	}
	if err := d.exportTables(); err != nil {
		return err
	}
	if err := d.exportTriggers(); err != nil {
		return err
	}
	if err := d.exportViews(); err != nil {
		return err
	}
	if err := d.exportProcedures(); err != nil {
		return err
	}
	if err := d.exportEvents(); err != nil {
		return err
	}
	if err := d.write(d.cat.restoreParameters(d.opts)); err != nil {
		return err
	}
	return d.writeFooter()
}

func (d *Dumper) write(s string) error {
	if s == "" {
		return nil
	}
	_, err := d.sink.WriteString(s)
	return err
}

func (d *Dumper) exec(stmt string) error {
	if stmt == "" {
		return nil
	}
	if _, err := d.db.Exec(stmt); err != nil {
		return &QueryError{Query: stmt, Err: err}
	}
	return nil
}

// comment writes a "--"-bracketed comment block unless skip-comments.
func (d *Dumper) comment(text string) error {
	if d.opts.SkipComments {
		return nil
	}
	return d.write("--\n-- " + text + "\n--\n\n")
}

func (d *Dumper) writeHeader() error {
	if d.opts.SkipComments {
		return nil
	}
	host := d.dsn.Host()
	if host == "" {
		host = "localhost"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "-- mysqldump-go %s\n--\n", Version())
	fmt.Fprintf(&b, "-- Host: %s    Database: %s\n", host, d.dsn.DBName())
	b.WriteString("-- ------------------------------------------------------\n")
	fmt.Fprintf(&b, "-- Server version\t%s\n", d.version)
	if !d.opts.SkipDumpDate {
		fmt.Fprintf(&b, "-- Date: %s\n", time.Now().Format("Mon Jan 2 15:04:05 2006"))
	}
	b.WriteString("\n")
	return d.write(b.String())
}

func (d *Dumper) writeFooter() error {
	if d.opts.SkipComments {
		return nil
	}
	if d.opts.SkipDumpDate {
		return d.write("-- Dump completed\n")
	}
	return d.write("-- Dump completed on " + time.Now().Format("2006-01-02 15:04:05") + "\n")
}

func (d *Dumper) exportDatabase() error {
	if !d.opts.Databases {
		return nil
	}
	dbName := d.dsn.DBName()
	if d.opts.AddDropDatabase {
		if err := d.write(d.cat.dropDatabase(dbName)); err != nil {
			return err
		}
	}
	stmt, err := d.cat.createDatabase(d.db, dbName, d.opts)
	if err != nil {
		return err
	}
	if stmt == "" {
		return nil
	}
	if err := d.write(stmt); err != nil {
		return err
	}
	return d.write("\n")
}

func (d *Dumper) enumerate() error {
	dbName := d.dsn.DBName()
	var err error
	if d.tables, err = d.cat.listTables(d.db, dbName); err != nil {
		return fmt.Errorf("list tables: %w", err)
	}
	if d.views, err = d.cat.listViews(d.db, dbName); err != nil {
		return fmt.Errorf("list views: %w", err)
	}
	if !d.opts.SkipTriggers {
		if d.triggers, err = d.cat.listTriggers(d.db, dbName); err != nil {
			return fmt.Errorf("list triggers: %w", err)
		}
	}
	if d.opts.Routines {
		if d.procedures, err = d.cat.listProcedures(d.db, dbName); err != nil {
			return fmt.Errorf("list procedures: %w", err)
		}
	}
	if d.opts.Events {
		if d.events, err = d.cat.listEvents(d.db, dbName); err != nil {
			return fmt.Errorf("list events: %w", err)
		}
	}
	return nil
}

// validateIncludes fails the run when an include-tables entry matched
// nothing in the catalog. include-tables entries may resolve to either a
// table or a view; include-views entries are not checked here and only
// filter which views are dumped.
func (d *Dumper) validateIncludes() error {
	if !d.includeTables.Empty() {
		for _, t := range d.tables {
			d.includeTables.Match(t)
		}
		for _, v := range d.views {
			d.includeTables.Match(v)
		}
		if left := d.includeTables.Unmatched(); len(left) > 0 {
			return &ConfigError{
				Field:   "include-tables",
				Message: fmt.Sprintf("not found in database: %s", strings.Join(left, ", ")),
			}
		}
	}
	return nil
}

func (d *Dumper) skipTable(table string) bool {
	if d.excludeTables.Match(table) {
		return true
	}
	return !d.includeTables.Empty() && !d.includeTables.Match(table)
}

// skipView applies the include-views filter; exclusion reuses
// exclude-tables, as views share the table namespace.
func (d *Dumper) skipView(view string) bool {
	if d.excludeTables.Match(view) {
		return true
	}
	return !d.includeViews.Empty() && !d.includeViews.Match(view)
}

func (d *Dumper) columnTypes(table string) ([]ColumnType, error) {
	if cols, ok := d.columnCache[table]; ok {
		return cols, nil
	}
	cols, err := d.cat.listColumns(d.db, table)
	if err != nil {
		return nil, fmt.Errorf("columns for %s: %w", table, err)
	}
	d.columnCache[table] = cols
	return cols, nil
}

func (d *Dumper) exportTables() error {
	for _, table := range d.tables {
		if d.skipTable(table) {
			continue
		}
		if err := d.exportTable(table); err != nil {
			return fmt.Errorf("table %s: %w", table, err)
		}
	}
	return nil
}

func (d *Dumper) exportTable(table string) error {
	cols, err := d.columnTypes(table)
	if err != nil {
		return err
	}

	if !d.opts.NoCreateInfo {
		if err := d.comment("Table structure for table " + d.cat.quote(table)); err != nil {
			return err
		}
		if d.opts.AddDropTable {
			if err := d.write(d.cat.dropTable(table)); err != nil {
				return err
			}
		}
		ddl, err := d.cat.createTable(d.db, table, d.opts)
		if err != nil {
			return err
		}
		if err := d.write(ddl); err != nil {
			return err
		}
		if err := d.write("\n"); err != nil {
			return err
		}
	}

	if d.opts.NoData || d.noDataTables.Match(table) {
		return nil
	}
	return d.dumpTableData(table, cols)
}

// dumpTableData is the row-emit loop: prologue, batched inserts,
// symmetric epilogue. Bracketing statements appear in matched pairs
// even when the table has zero rows.
func (d *Dumper) dumpTableData(table string, cols []ColumnType) error {
	opts := d.opts

	var proj []string
	var dataCols []ColumnType
	for _, c := range cols {
		if c.IsVirtual {
			continue
		}
		proj = append(proj, d.cat.columnSelect(c, opts))
		dataCols = append(dataCols, c)
	}
	if len(dataCols) == 0 {
		return nil
	}
	// Omitting generated columns would misalign a positional insert.
	completeInsert := opts.CompleteInsert || hasVirtualColumns(cols)

	query := "SELECT " + strings.Join(proj, ",") + " FROM " + d.cat.quote(table)
	if opts.Where != "" {
		query += " WHERE " + opts.Where
	} else if keep, ok := opts.KeepData[table]; ok {
		vals := make([]string, len(keep.Rows))
		for i, r := range keep.Rows {
			vals[i] = quoteString(r)
		}
		query += fmt.Sprintf(" WHERE %s IN (%s)", d.cat.quote(keep.Column), strings.Join(vals, ","))
	}

	if err := d.comment("Dumping data for table " + d.cat.quote(table)); err != nil {
		return err
	}
	if opts.SingleTransaction && !d.inTransaction {
		if err := d.exec(d.cat.setupTransaction()); err != nil {
			return err
		}
		if err := d.exec(d.cat.startTransaction()); err != nil {
			return err
		}
		d.inTransaction = true
	}
	if opts.LockTables {
		if err := d.exec(d.cat.lockTableRead(table)); err != nil {
			return err
		}
	}
	if opts.AddLocks {
		if err := d.write(d.cat.startAddLockTable(table)); err != nil {
			return err
		}
	}
	if opts.DisableKeys {
		if err := d.write(d.cat.startAddDisableKeys(table)); err != nil {
			return err
		}
	}
	if opts.NoAutocommit {
		if err := d.write(d.cat.startDisableAutocommit()); err != nil {
			return err
		}
	}

	if err := d.emitRows(table, query, dataCols, completeInsert); err != nil {
		return err
	}

	if opts.DisableKeys {
		if err := d.write(d.cat.endAddDisableKeys(table)); err != nil {
			return err
		}
	}
	if opts.AddLocks {
		if err := d.write(d.cat.endAddLockTable()); err != nil {
			return err
		}
	}
	if d.inTransaction {
		if err := d.exec(d.cat.commitTransaction()); err != nil {
			return err
		}
		d.inTransaction = false
	}
	if opts.LockTables {
		if err := d.exec(d.cat.unlockTablesRead()); err != nil {
			return err
		}
	}
	if opts.NoAutocommit {
		if err := d.write(d.cat.endDisableAutocommit()); err != nil {
			return err
		}
	}
	return d.write("\n")
}

func (d *Dumper) emitRows(table, query string, cols []ColumnType, completeInsert bool) error {
	opts := d.opts

	rows, err := d.db.Query(query)
	if err != nil {
		return &QueryError{Query: query, Err: err}
	}
	defer rows.Close()

	head := d.insertHeader(table, cols, completeInsert)
	lineSize := 0
	first := true

	scan := make([]sql.NullString, len(cols))
	ptrs := make([]any, len(cols))
	for i := range scan {
		ptrs[i] = &scan[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return &QueryError{Query: query, Err: err}
		}
		tuple := "(" + strings.Join(d.encodeRow(table, cols, scan), ",") + ")"

		var n int
		if first || !opts.ExtendedInsert {
			n, err = d.sink.WriteString(head + tuple)
			first = false
		} else {
			n, err = d.sink.WriteString("," + tuple)
		}
		if err != nil {
			return err
		}
		lineSize += n

		if lineSize > opts.NetBufferLength || !opts.ExtendedInsert {
			if err := d.write(";\n"); err != nil {
				return err
			}
			lineSize = 0
			first = true
		}
	}
	if err := rows.Err(); err != nil {
		return &QueryError{Query: query, Err: err}
	}
	if !first {
		return d.write(";\n")
	}
	return nil
}

func (d *Dumper) insertHeader(table string, cols []ColumnType, completeInsert bool) string {
	verb := "INSERT"
	if d.opts.InsertIgnore {
		verb = "INSERT IGNORE"
	}
	if completeInsert {
		names := make([]string, len(cols))
		for i, c := range cols {
			names[i] = d.cat.quote(c.Field)
		}
		return fmt.Sprintf("%s INTO %s (%s) VALUES ", verb, d.cat.quote(table), strings.Join(names, ", "))
	}
	return fmt.Sprintf("%s INTO %s VALUES ", verb, d.cat.quote(table))
}

func (d *Dumper) encodeRow(table string, cols []ColumnType, scan []sql.NullString) []string {
	var rowMap map[string]any
	if d.hook != nil {
		rowMap = make(map[string]any, len(cols))
		for i, c := range cols {
			if scan[i].Valid {
				rowMap[c.Field] = scan[i].String
			} else {
				rowMap[c.Field] = nil
			}
		}
	}

	out := make([]string, len(cols))
	for i, c := range cols {
		var val any
		if scan[i].Valid {
			val = scan[i].String
		}
		if d.hook != nil {
			val = d.hook(table, c.Field, val, rowMap)
		}
		out[i] = encodeColumnValue(val, c, d.opts)
	}
	return out
}

func (d *Dumper) exportTriggers() error {
	if d.opts.NoCreateInfo {
		return nil
	}
	for _, trigger := range d.triggers {
		ddl, err := d.cat.createTrigger(d.db, trigger, d.opts)
		if err != nil {
			return fmt.Errorf("trigger %s: %w", trigger, err)
		}
		if err := d.comment("Trigger structure " + d.cat.quote(trigger)); err != nil {
			return err
		}
		if err := d.write(ddl); err != nil {
			return err
		}
		if err := d.write("\n"); err != nil {
			return err
		}
	}
	return nil
}

// exportViews writes two passes: stand-in tables first so forward
// references resolve on replay, then the real CREATE VIEW statements
// replacing each stand-in.
func (d *Dumper) exportViews() error {
	if d.opts.NoCreateInfo {
		return nil
	}

	for _, view := range d.views {
		if d.skipView(view) {
			continue
		}
		cols, err := d.columnTypes(view)
		if err != nil {
			return fmt.Errorf("view %s: %w", view, err)
		}
		if err := d.comment("Stand-in table for view " + d.cat.quote(view)); err != nil {
			return err
		}
		if err := d.write(d.standInView(view, cols)); err != nil {
			return err
		}
		if err := d.write("\n"); err != nil {
			return err
		}
	}

	for _, view := range d.views {
		if d.skipView(view) {
			continue
		}
		ddl, err := d.cat.createView(d.db, view, d.opts)
		if err != nil {
			return fmt.Errorf("view %s: %w", view, err)
		}
		if err := d.comment("View structure for view " + d.cat.quote(view)); err != nil {
			return err
		}
		if err := d.write(d.cat.dropView(view)); err != nil {
			return err
		}
		if err := d.write(ddl); err != nil {
			return err
		}
		if err := d.write("\n"); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dumper) standInView(view string, cols []ColumnType) string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = "  " + d.cat.quote(c.Field) + " " + c.RawSQL
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n%s\n);\n", d.cat.quote(view), strings.Join(defs, ",\n"))
}

func (d *Dumper) exportProcedures() error {
	if d.opts.NoCreateInfo {
		return nil
	}
	for _, proc := range d.procedures {
		ddl, err := d.cat.createProcedure(d.db, proc, d.opts)
		if err != nil {
			return fmt.Errorf("procedure %s: %w", proc, err)
		}
		if err := d.comment("Dumping routine structure for procedure " + d.cat.quote(proc)); err != nil {
			return err
		}
		if err := d.write(ddl); err != nil {
			return err
		}
		if err := d.write("\n"); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dumper) exportEvents() error {
	if d.opts.NoCreateInfo {
		return nil
	}
	for _, event := range d.events {
		ddl, err := d.cat.createEvent(d.db, event, d.opts)
		if err != nil {
			return fmt.Errorf("event %s: %w", event, err)
		}
		if err := d.comment("Dumping event structure for event " + d.cat.quote(event)); err != nil {
			return err
		}
		if err := d.write(ddl); err != nil {
			return err
		}
		if err := d.write("\n"); err != nil {
			return err
		}
	}
	return nil
}
