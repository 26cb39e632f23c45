package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/url"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	_ "modernc.org/sqlite"
)

// driverName maps the backends that can execute to database/sql drivers.
var driverName = map[string]string{
	"postgis": "pgx",
	"mysql":   "mysql",
	"sqlite":  "sqlite",
}

const maxRows = 1000

type dbConn struct {
	db      *sql.DB
	dsn     string
	backend string
	tables  []string
}

func connect(ctx context.Context, backend, dsn string, logger logrus.FieldLogger) (*dbConn, error) {
	driver, ok := driverName[backend]
	if !ok {
		return nil, fmt.Errorf("backend %q cannot execute queries", backend)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	conn := &dbConn{db: db, dsn: dsn, backend: backend}
	if err := conn.loadSchema(ctx); err != nil {
		// completion only
		logger.WithError(err).Warn("schema introspection failed")
	}
	return conn, nil
}

func (c *dbConn) close() error {
	return c.db.Close()
}

// execQuery runs a query and writes its rows to w as a table.
func (c *dbConn) execQuery(ctx context.Context, w io.Writer, query string, params []any) error {
	rows, err := c.db.QueryContext(ctx, query, params...)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return writeRows(w, rows)
}

func writeRows(w io.Writer, rows *sql.Rows) error {
	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("columns: %w", err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	header := make(table.Row, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	t.AppendHeader(header)

	n, truncated := 0, false
	for rows.Next() {
		if n >= maxRows {
			truncated = true
			break
		}
		vals := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		row := make(table.Row, len(columns))
		for i, v := range vals {
			row[i] = formatValue(v)
		}
		t.AppendRow(row)
		n++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows: %w", err)
	}

	if n > 0 {
		t.Render()
	}
	switch {
	case truncated:
		_, _ = fmt.Fprintf(w, "(truncated at %d rows)\n", maxRows)
	case n == 1:
		_, _ = fmt.Fprintln(w, "(1 row)")
	default:
		_, _ = fmt.Fprintf(w, "(%d rows)\n", n)
	}
	return nil
}

func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(v)
	}
	return cast.ToString(v)
}

func (c *dbConn) loadSchema(ctx context.Context) error {
	var query string
	switch c.backend {
	case "postgis":
		query = "SELECT table_name FROM information_schema.tables WHERE table_schema = 'public' ORDER BY table_name"
	case "mysql":
		query = "SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE() ORDER BY table_name"
	case "sqlite":
		query = "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name"
	default:
		return fmt.Errorf("unsupported backend: %s", c.backend)
	}
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()
	var tables []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return err
		}
		tables = append(tables, s)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	c.tables = tables
	return nil
}

func sanitizeDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err == nil && u.Scheme != "" && u.User != nil {
		if _, hasPass := u.User.Password(); hasPass {
			masked := u.Scheme + "://" + u.User.Username() + ":****@" + u.Host + u.Path
			if u.RawQuery != "" {
				masked += "?" + u.RawQuery
			}
			return masked
		}
		return dsn
	}

	// user:pass@tcp(host)/db
	if at := strings.Index(dsn, "@"); at > 0 {
		userPass := dsn[:at]
		if colon := strings.Index(userPass, ":"); colon >= 0 {
			return userPass[:colon+1] + "****" + dsn[at:]
		}
	}
	return dsn
}
