package mysqldump

import (
	"database/sql"
	"fmt"
	"net"
	"regexp"
	"strings"

	"github.com/go-sql-driver/mysql"
)

type mysqlCatalog struct{}

func (c *mysqlCatalog) name() string { return "MySQL" }

func (c *mysqlCatalog) openDB(dsn *DSN, opts *Options) (*sql.DB, error) {
	cfg := mysql.NewConfig()
	cfg.User = dsn.User()
	cfg.Passwd = dsn.Password()
	cfg.DBName = dsn.DBName()
	cfg.InterpolateParams = true
	if sock := dsn.UnixSocket(); sock != "" {
		cfg.Net = "unix"
		cfg.Addr = sock
	} else {
		port := dsn.Port()
		if port == "" {
			port = "3306"
		}
		cfg.Net = "tcp"
		cfg.Addr = net.JoinHostPort(dsn.Host(), port)
	}

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, &ConnectionError{Addr: cfg.Addr, Err: err}
	}
	// One session only: SET NAMES, LOCK TABLES, and the snapshot
	// transaction must all land on the same connection. The driver
	// streams result rows, so large tables are never buffered client-side.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &ConnectionError{Addr: cfg.Addr, Err: err}
	}

	init := append([]string{"SET NAMES " + opts.DefaultCharacterSet}, opts.InitCommands...)
	for _, stmt := range init {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, &QueryError{Query: stmt, Err: err}
		}
	}
	return db, nil
}

func (c *mysqlCatalog) serverVersion(db *sql.DB) (string, error) {
	var version string
	if err := db.QueryRow("SELECT version()").Scan(&version); err != nil {
		return "", &QueryError{Query: "SELECT version()", Err: err}
	}
	return version, nil
}

func (c *mysqlCatalog) listTables(db *sql.DB, dbName string) ([]string, error) {
	return collectStrings(db,
		"SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_TYPE='BASE TABLE' AND TABLE_SCHEMA = ?",
		dbName)
}

func (c *mysqlCatalog) listViews(db *sql.DB, dbName string) ([]string, error) {
	return collectStrings(db,
		"SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_TYPE='VIEW' AND TABLE_SCHEMA = ?",
		dbName)
}

func (c *mysqlCatalog) listTriggers(db *sql.DB, dbName string) ([]string, error) {
	return queryNamedColumn(db, "SHOW TRIGGERS FROM "+c.quote(dbName), "Trigger")
}

func (c *mysqlCatalog) listProcedures(db *sql.DB, dbName string) ([]string, error) {
	return collectStrings(db,
		"SELECT SPECIFIC_NAME FROM INFORMATION_SCHEMA.ROUTINES WHERE ROUTINE_TYPE='PROCEDURE' AND ROUTINE_SCHEMA = ?",
		dbName)
}

func (c *mysqlCatalog) listEvents(db *sql.DB, dbName string) ([]string, error) {
	return collectStrings(db,
		"SELECT EVENT_NAME FROM INFORMATION_SCHEMA.EVENTS WHERE EVENT_SCHEMA = ?",
		dbName)
}

func (c *mysqlCatalog) listColumns(db *sql.DB, table string) ([]ColumnType, error) {
	query := "SHOW COLUMNS FROM " + c.quote(table)
	rows, err := db.Query(query)
	if err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}
	fieldIdx, typeIdx, extraIdx := -1, -1, -1
	for i, n := range names {
		switch n {
		case "Field":
			fieldIdx = i
		case "Type":
			typeIdx = i
		case "Extra":
			extraIdx = i
		}
	}
	if fieldIdx < 0 || typeIdx < 0 || extraIdx < 0 {
		return nil, &QueryError{Query: query, Err: fmt.Errorf("reply is missing Field, Type, or Extra")}
	}

	var cols []ColumnType
	ptrs := make([]any, len(names))
	vals := make([]sql.NullString, len(names))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &QueryError{Query: query, Err: err}
		}
		cols = append(cols, parseColumnType(vals[fieldIdx].String, vals[typeIdx].String, vals[extraIdx].String))
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}
	return cols, nil
}

var autoIncrementRe = regexp.MustCompile(`AUTO_INCREMENT=\d+ ?`)

func (c *mysqlCatalog) createTable(db *sql.DB, table string, opts *Options) (string, error) {
	stmt, err := queryNamedCell(db, "SHOW CREATE TABLE "+c.quote(table), "Create Table")
	if err != nil {
		return "", err
	}
	if opts.ResetAutoIncrement {
		stmt = autoIncrementRe.ReplaceAllString(stmt, "")
	}

	var b strings.Builder
	b.WriteString("/*!40101 SET @saved_cs_client     = @@character_set_client */;\n")
	b.WriteString("/*!40101 SET character_set_client = " + opts.DefaultCharacterSet + " */;\n")
	b.WriteString(stmt)
	b.WriteString(";\n")
	b.WriteString("/*!40101 SET character_set_client = @saved_cs_client */;\n")
	return b.String(), nil
}

// viewRe anchors the CREATE VIEW statement so the optional ALGORITHM
// and DEFINER clauses can be re-wrapped in version-guarded comments.
var viewRe = regexp.MustCompile(
	"^(CREATE(?:\\s+ALGORITHM=(?:UNDEFINED|MERGE|TEMPTABLE))?)\\s+" +
		"(DEFINER=`(?:[^`]|``)*`@`(?:[^`]|``)*`(?:\\s+SQL SECURITY (?:DEFINER|INVOKER))?)?\\s*" +
		"(VIEW .+)$")

func (c *mysqlCatalog) createView(db *sql.DB, view string, opts *Options) (string, error) {
	query := "SHOW CREATE VIEW " + c.quote(view)
	stmt, err := queryNamedCell(db, query, "Create View")
	if err != nil {
		return "", err
	}

	m := viewRe.FindStringSubmatch(stmt)
	if m == nil {
		return "", &QueryError{Query: query, Err: fmt.Errorf("unexpected CREATE VIEW shape")}
	}

	var b strings.Builder
	b.WriteString("/*!50001 " + m[1] + " */\n")
	if m[2] != "" && !opts.SkipDefiner {
		b.WriteString("/*!50013 " + m[2] + " */\n")
	}
	b.WriteString("/*!50001 " + m[3] + " */;\n")
	return b.String(), nil
}

var definerRe = regexp.MustCompile("DEFINER=`(?:[^`]|``)*`@`(?:[^`]|``)*`\\s*")

func (c *mysqlCatalog) createTrigger(db *sql.DB, trigger string, opts *Options) (string, error) {
	stmt, err := queryNamedCell(db, "SHOW CREATE TRIGGER "+c.quote(trigger), "SQL Original Statement")
	if err != nil {
		return "", err
	}
	if opts.SkipDefiner {
		stmt = definerRe.ReplaceAllString(stmt, "")
	}

	var b strings.Builder
	if opts.AddDropTrigger {
		b.WriteString("/*!50032 DROP TRIGGER IF EXISTS " + c.quote(trigger) + " */;\n")
	}
	b.WriteString("DELIMITER ;;\n")
	b.WriteString(stmt)
	b.WriteString(";;\nDELIMITER ;\n")
	return b.String(), nil
}

func (c *mysqlCatalog) createProcedure(db *sql.DB, proc string, opts *Options) (string, error) {
	stmt, err := queryNamedCell(db, "SHOW CREATE PROCEDURE "+c.quote(proc), "Create Procedure")
	if err != nil {
		return "", err
	}
	if opts.SkipDefiner {
		stmt = definerRe.ReplaceAllString(stmt, "")
	}

	var b strings.Builder
	b.WriteString("DROP PROCEDURE IF EXISTS " + c.quote(proc) + ";\n")
	b.WriteString("/*!50003 SET @saved_cs_client      = @@character_set_client */ ;\n")
	b.WriteString("/*!50003 SET character_set_client  = " + opts.DefaultCharacterSet + " */ ;\n")
	b.WriteString("DELIMITER ;;\n")
	b.WriteString(stmt)
	b.WriteString(" ;;\nDELIMITER ;\n")
	b.WriteString("/*!50003 SET character_set_client  = @saved_cs_client */ ;\n")
	return b.String(), nil
}

func (c *mysqlCatalog) createEvent(db *sql.DB, event string, opts *Options) (string, error) {
	stmt, err := queryNamedCell(db, "SHOW CREATE EVENT "+c.quote(event), "Create Event")
	if err != nil {
		return "", err
	}
	if opts.SkipDefiner {
		stmt = definerRe.ReplaceAllString(stmt, "")
	}
	cs := opts.DefaultCharacterSet

	var b strings.Builder
	b.WriteString("/*!50106 SET @save_time_zone= @@TIME_ZONE */ ;\n")
	b.WriteString("/*!50106 DROP EVENT IF EXISTS " + c.quote(event) + " */;\n")
	b.WriteString("DELIMITER ;;\n")
	b.WriteString("/*!50003 SET @saved_cs_client      = @@character_set_client */ ;;\n")
	b.WriteString("/*!50003 SET @saved_cs_results     = @@character_set_results */ ;;\n")
	b.WriteString("/*!50003 SET @saved_col_connection = @@collation_connection */ ;;\n")
	b.WriteString("/*!50003 SET character_set_client  = " + cs + " */ ;;\n")
	b.WriteString("/*!50003 SET character_set_results = " + cs + " */ ;;\n")
	b.WriteString("/*!50003 SET collation_connection  = " + cs + "_general_ci */ ;;\n")
	b.WriteString("/*!50003 SET @saved_sql_mode       = @@sql_mode */ ;;\n")
	b.WriteString("/*!50003 SET sql_mode              = '' */ ;;\n")
	b.WriteString("/*!50106 " + stmt + " */ ;;\n")
	b.WriteString("/*!50003 SET sql_mode              = @saved_sql_mode */ ;;\n")
	b.WriteString("/*!50003 SET character_set_client  = @saved_cs_client */ ;;\n")
	b.WriteString("/*!50003 SET character_set_results = @saved_cs_results */ ;;\n")
	b.WriteString("/*!50003 SET collation_connection  = @saved_col_connection */ ;;\n")
	b.WriteString("DELIMITER ;\n")
	b.WriteString("/*!50106 SET TIME_ZONE= @save_time_zone */ ;\n")
	return b.String(), nil
}

func (c *mysqlCatalog) createDatabase(db *sql.DB, dbName string, opts *Options) (string, error) {
	var charset, collation string
	query := "SELECT @@character_set_database, @@collation_database"
	if err := db.QueryRow(query).Scan(&charset, &collation); err != nil {
		return "", &QueryError{Query: query, Err: err}
	}
	return fmt.Sprintf(
		"CREATE DATABASE /*!32312 IF NOT EXISTS*/ %s /*!40100 DEFAULT CHARACTER SET %s COLLATE %s */;\n\nUSE %s;\n",
		c.quote(dbName), charset, collation, c.quote(dbName)), nil
}

func (c *mysqlCatalog) backupParameters(opts *Options) string {
	var b strings.Builder
	b.WriteString("/*!40101 SET @OLD_CHARACTER_SET_CLIENT=@@CHARACTER_SET_CLIENT */;\n")
	b.WriteString("/*!40101 SET @OLD_CHARACTER_SET_RESULTS=@@CHARACTER_SET_RESULTS */;\n")
	b.WriteString("/*!40101 SET @OLD_COLLATION_CONNECTION=@@COLLATION_CONNECTION */;\n")
	b.WriteString("/*!40101 SET NAMES " + opts.DefaultCharacterSet + " */;\n")
	if !opts.SkipTzUTC {
		b.WriteString("/*!40103 SET @OLD_TIME_ZONE=@@TIME_ZONE */;\n")
		b.WriteString("/*!40103 SET TIME_ZONE='+00:00' */;\n")
	}
	b.WriteString("/*!40014 SET @OLD_UNIQUE_CHECKS=@@UNIQUE_CHECKS, UNIQUE_CHECKS=0 */;\n")
	b.WriteString("/*!40014 SET @OLD_FOREIGN_KEY_CHECKS=@@FOREIGN_KEY_CHECKS, FOREIGN_KEY_CHECKS=0 */;\n")
	b.WriteString("/*!40101 SET @OLD_SQL_MODE=@@SQL_MODE, SQL_MODE='NO_AUTO_VALUE_ON_ZERO' */;\n")
	b.WriteString("/*!40111 SET @OLD_SQL_NOTES=@@SQL_NOTES, SQL_NOTES=0 */;\n")
	return b.String()
}

func (c *mysqlCatalog) restoreParameters(opts *Options) string {
	var b strings.Builder
	if !opts.SkipTzUTC {
		b.WriteString("/*!40103 SET TIME_ZONE=@OLD_TIME_ZONE */;\n")
	}
	b.WriteString("/*!40101 SET SQL_MODE=@OLD_SQL_MODE */;\n")
	b.WriteString("/*!40014 SET FOREIGN_KEY_CHECKS=@OLD_FOREIGN_KEY_CHECKS */;\n")
	b.WriteString("/*!40014 SET UNIQUE_CHECKS=@OLD_UNIQUE_CHECKS */;\n")
	b.WriteString("/*!40101 SET CHARACTER_SET_CLIENT=@OLD_CHARACTER_SET_CLIENT */;\n")
	b.WriteString("/*!40101 SET CHARACTER_SET_RESULTS=@OLD_CHARACTER_SET_RESULTS */;\n")
	b.WriteString("/*!40101 SET COLLATION_CONNECTION=@OLD_COLLATION_CONNECTION */;\n")
	b.WriteString("/*!40111 SET SQL_NOTES=@OLD_SQL_NOTES */;\n")
	return b.String()
}

func (c *mysqlCatalog) setupTransaction() string {
	return "SET SESSION TRANSACTION ISOLATION LEVEL REPEATABLE READ"
}

func (c *mysqlCatalog) startTransaction() string {
	return "START TRANSACTION /*!40100 WITH CONSISTENT SNAPSHOT */"
}

func (c *mysqlCatalog) commitTransaction() string { return "COMMIT" }

func (c *mysqlCatalog) lockTableRead(table string) string {
	return "LOCK TABLES " + c.quote(table) + " READ LOCAL"
}

func (c *mysqlCatalog) unlockTablesRead() string { return "UNLOCK TABLES" }

func (c *mysqlCatalog) startAddLockTable(table string) string {
	return "LOCK TABLES " + c.quote(table) + " WRITE;\n"
}

func (c *mysqlCatalog) endAddLockTable() string { return "UNLOCK TABLES;\n" }

func (c *mysqlCatalog) startAddDisableKeys(table string) string {
	return "/*!40000 ALTER TABLE " + c.quote(table) + " DISABLE KEYS */;\n"
}

func (c *mysqlCatalog) endAddDisableKeys(table string) string {
	return "/*!40000 ALTER TABLE " + c.quote(table) + " ENABLE KEYS */;\n"
}

func (c *mysqlCatalog) startDisableAutocommit() string { return "SET autocommit=0;\n" }

func (c *mysqlCatalog) endDisableAutocommit() string { return "COMMIT;\n" }

func (c *mysqlCatalog) dropTable(table string) string {
	return "DROP TABLE IF EXISTS " + c.quote(table) + ";\n"
}

func (c *mysqlCatalog) dropView(view string) string {
	return "DROP TABLE IF EXISTS " + c.quote(view) + ";\n"
}

func (c *mysqlCatalog) dropDatabase(dbName string) string {
	return "/*!40000 DROP DATABASE IF EXISTS " + c.quote(dbName) + "*/;\n"
}

func (c *mysqlCatalog) columnSelect(col ColumnType, opts *Options) string {
	q := c.quote(col.Field)
	if !opts.HexBlob || !col.IsBlob {
		return q
	}
	if col.Type == "bit" {
		return fmt.Sprintf("LPAD(HEX(%s),2,'0') AS %s", q, q)
	}
	return fmt.Sprintf("HEX(%s) AS %s", q, q)
}

func (c *mysqlCatalog) quote(name string) string {
	return fmt.Sprintf("`%s`", strings.ReplaceAll(name, "`", "``"))
}
