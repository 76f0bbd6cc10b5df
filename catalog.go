package mysqldump

import (
	"database/sql"
	"fmt"
)

// catalog translates dump operations into dialect-specific SQL and
// formats the server's replies into dump text. Methods returning
// statement text may return "" when the dialect has no equivalent; the
// engine skips empty statements.
type catalog interface {
	// name returns a human-readable dialect name.
	name() string

	// openDB opens a connection with driver-native options. The
	// connection is pinned to a single underlying session so SET, LOCK,
	// and transaction state survive across queries.
	openDB(dsn *DSN, opts *Options) (*sql.DB, error)

	serverVersion(db *sql.DB) (string, error)

	listTables(db *sql.DB, dbName string) ([]string, error)
	listViews(db *sql.DB, dbName string) ([]string, error)
	listTriggers(db *sql.DB, dbName string) ([]string, error)
	listProcedures(db *sql.DB, dbName string) ([]string, error)
	listEvents(db *sql.DB, dbName string) ([]string, error)
	listColumns(db *sql.DB, table string) ([]ColumnType, error)

	// create* fetch an object's DDL and post-process it into replayable
	// dump text (version guards, DEFINER handling, DELIMITER bracketing).
	createTable(db *sql.DB, table string, opts *Options) (string, error)
	createView(db *sql.DB, view string, opts *Options) (string, error)
	createTrigger(db *sql.DB, trigger string, opts *Options) (string, error)
	createProcedure(db *sql.DB, proc string, opts *Options) (string, error)
	createEvent(db *sql.DB, event string, opts *Options) (string, error)
	createDatabase(db *sql.DB, dbName string, opts *Options) (string, error)

	// Session bracketing. backup/restoreParameters are written to the
	// dump; the transaction and read-lock statements are executed
	// server-side for read consistency.
	backupParameters(opts *Options) string
	restoreParameters(opts *Options) string
	setupTransaction() string
	startTransaction() string
	commitTransaction() string
	lockTableRead(table string) string
	unlockTablesRead() string

	// Replay-time bracketing written into the dump around bulk inserts.
	startAddLockTable(table string) string
	endAddLockTable() string
	startAddDisableKeys(table string) string
	endAddDisableKeys(table string) string
	startDisableAutocommit() string
	endDisableAutocommit() string

	dropTable(table string) string
	dropView(view string) string
	dropDatabase(dbName string) string

	// columnSelect builds the projection for one column of the row
	// select, e.g. HEX(col) AS col for BLOBs under hex-blob.
	columnSelect(col ColumnType, opts *Options) string

	quote(name string) string
}

// newCatalog returns the adapter for a dialect. The dialect set is
// closed at the DSN parse step; dialects that parse but cannot be
// dumped are rejected here.
func newCatalog(d Dialect) (catalog, error) {
	switch d {
	case DialectMySQL:
		return &mysqlCatalog{}, nil
	case DialectSQLite:
		return &sqliteCatalog{}, nil
	default:
		return nil, &ConfigError{Field: "dsn", Message: fmt.Sprintf("dumping %s databases is not supported", d)}
	}
}

// collectStrings gathers a single-column string result.
func collectStrings(db *sql.DB, query string, args ...any) ([]string, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, &QueryError{Query: query, Err: err}
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}
	return out, nil
}

// queryNamedColumn runs a query and collects the values of one column
// identified by name, for SHOW replies whose column count varies across
// server versions.
func queryNamedColumn(db *sql.DB, query, column string) ([]string, error) {
	rows, err := db.Query(query)
	if err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}
	idx := -1
	for i, c := range cols {
		if c == column {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, &QueryError{Query: query, Err: fmt.Errorf("reply has no %q column", column)}
	}

	var out []string
	ptrs := make([]any, len(cols))
	vals := make([]sql.NullString, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &QueryError{Query: query, Err: err}
		}
		out = append(out, vals[idx].String)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}
	return out, nil
}

// queryNamedCell runs a query expected to return one row and extracts
// one named column from it.
func queryNamedCell(db *sql.DB, query, column string) (string, error) {
	vals, err := queryNamedColumn(db, query, column)
	if err != nil {
		return "", err
	}
	if len(vals) == 0 {
		return "", &QueryError{Query: query, Err: fmt.Errorf("empty reply")}
	}
	return vals[0], nil
}
