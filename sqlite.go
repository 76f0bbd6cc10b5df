package mysqldump

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// sqliteCatalog dumps SQLite files. The stored DDL in sqlite_master is
// emitted verbatim, and SQLite has no session parameters, locks, or
// routines, so most bracketing methods return "".
type sqliteCatalog struct{}

func (c *sqliteCatalog) name() string { return "SQLite" }

func (c *sqliteCatalog) openDB(dsn *DSN, _ *Options) (*sql.DB, error) {
	path := dsn.DBName()
	if strings.Contains(path, "memory") {
		return nil, &ConfigError{Field: "dsn", Message: "in-memory SQLite databases cannot be dumped"}
	}
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, &ConnectionError{Addr: dsn.DBName(), Err: err}
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &ConnectionError{Addr: dsn.DBName(), Err: err}
	}
	return db, nil
}

func (c *sqliteCatalog) serverVersion(db *sql.DB) (string, error) {
	var version string
	if err := db.QueryRow("SELECT sqlite_version()").Scan(&version); err != nil {
		return "", &QueryError{Query: "SELECT sqlite_version()", Err: err}
	}
	return version, nil
}

func (c *sqliteCatalog) listTables(db *sql.DB, _ string) ([]string, error) {
	return collectStrings(db,
		"SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'")
}

func (c *sqliteCatalog) listViews(db *sql.DB, _ string) ([]string, error) {
	return collectStrings(db, "SELECT name FROM sqlite_master WHERE type='view'")
}

func (c *sqliteCatalog) listTriggers(db *sql.DB, _ string) ([]string, error) {
	return collectStrings(db, "SELECT name FROM sqlite_master WHERE type='trigger'")
}

func (c *sqliteCatalog) listProcedures(*sql.DB, string) ([]string, error) { return nil, nil }

func (c *sqliteCatalog) listEvents(*sql.DB, string) ([]string, error) { return nil, nil }

func (c *sqliteCatalog) listColumns(db *sql.DB, table string) ([]ColumnType, error) {
	query := "PRAGMA table_xinfo(" + c.quote(table) + ")"
	rows, err := db.Query(query)
	if err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}
	defer rows.Close()

	var cols []ColumnType
	for rows.Next() {
		var cid, notNull, pk, hidden int
		var name string
		var declType, dflt sql.NullString
		if err := rows.Scan(&cid, &name, &declType, &notNull, &dflt, &pk, &hidden); err != nil {
			return nil, &QueryError{Query: query, Err: err}
		}
		// hidden: 2 = virtual generated, 3 = stored generated.
		extra := ""
		switch hidden {
		case 2:
			extra = "VIRTUAL GENERATED"
		case 3:
			extra = "STORED GENERATED"
		}
		cols = append(cols, parseColumnType(name, declType.String, extra))
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}
	return cols, nil
}

func (c *sqliteCatalog) masterSQL(db *sql.DB, kind, name string) (string, error) {
	query := "SELECT sql FROM sqlite_master WHERE type=? AND name=?"
	var stmt sql.NullString
	if err := db.QueryRow(query, kind, name).Scan(&stmt); err != nil {
		return "", &QueryError{Query: query, Err: fmt.Errorf("%s %q: %w", kind, name, err)}
	}
	return stmt.String + ";\n", nil
}

func (c *sqliteCatalog) createTable(db *sql.DB, table string, _ *Options) (string, error) {
	return c.masterSQL(db, "table", table)
}

func (c *sqliteCatalog) createView(db *sql.DB, view string, _ *Options) (string, error) {
	return c.masterSQL(db, "view", view)
}

func (c *sqliteCatalog) createTrigger(db *sql.DB, trigger string, _ *Options) (string, error) {
	return c.masterSQL(db, "trigger", trigger)
}

func (c *sqliteCatalog) createProcedure(_ *sql.DB, proc string, _ *Options) (string, error) {
	return "", &QueryError{Query: proc, Err: fmt.Errorf("sqlite has no stored procedures")}
}

func (c *sqliteCatalog) createEvent(_ *sql.DB, event string, _ *Options) (string, error) {
	return "", &QueryError{Query: event, Err: fmt.Errorf("sqlite has no events")}
}

func (c *sqliteCatalog) createDatabase(*sql.DB, string, *Options) (string, error) {
	return "", nil
}

func (c *sqliteCatalog) backupParameters(*Options) string  { return "" }
func (c *sqliteCatalog) restoreParameters(*Options) string { return "" }
func (c *sqliteCatalog) setupTransaction() string          { return "" }
func (c *sqliteCatalog) startTransaction() string          { return "BEGIN DEFERRED TRANSACTION" }
func (c *sqliteCatalog) commitTransaction() string         { return "COMMIT" }
func (c *sqliteCatalog) lockTableRead(string) string       { return "" }
func (c *sqliteCatalog) unlockTablesRead() string          { return "" }
func (c *sqliteCatalog) startAddLockTable(string) string   { return "" }
func (c *sqliteCatalog) endAddLockTable() string           { return "" }
func (c *sqliteCatalog) startAddDisableKeys(string) string { return "" }
func (c *sqliteCatalog) endAddDisableKeys(string) string   { return "" }
func (c *sqliteCatalog) startDisableAutocommit() string    { return "" }
func (c *sqliteCatalog) endDisableAutocommit() string      { return "" }

func (c *sqliteCatalog) dropTable(table string) string {
	return "DROP TABLE IF EXISTS " + c.quote(table) + ";\n"
}

func (c *sqliteCatalog) dropView(view string) string {
	return "DROP TABLE IF EXISTS " + c.quote(view) + ";\n"
}

func (c *sqliteCatalog) dropDatabase(string) string { return "" }

func (c *sqliteCatalog) columnSelect(col ColumnType, opts *Options) string {
	q := c.quote(col.Field)
	if opts.HexBlob && col.IsBlob {
		// hex(NULL) is '' in SQLite; keep NULL cells NULL.
		return fmt.Sprintf("CASE WHEN %s IS NULL THEN NULL ELSE hex(%s) END AS %s", q, q, q)
	}
	return q
}

func (c *sqliteCatalog) quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
