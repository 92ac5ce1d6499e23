package company

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"tenantchat/internal/config"
)

// Supported SQL source drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// Leading keyword of statements allowed through sql_query
var readOnlyStatement = regexp.MustCompile(`(?is)^\s*(select|with|explain)\b`)

// SQLSource is a read-only tenant database the model can query.
type SQLSource struct {
	Name        string
	Description string
	driver      string
	tables      []string
	db          *sql.DB
}

// OpenSQLSource opens the database at the DSN held in the named environment variable.
func OpenSQLSource(ctx context.Context, name, driver, dsnEnv, description string, tables []string) (*SQLSource, error) {
	dsn := os.Getenv(dsnEnv)
	if dsn == "" {
		return nil, fmt.Errorf("sql source %s: %s not set", name, dsnEnv)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sql source %s: %w", name, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sql source %s: ping: %w", name, err)
	}

	return NewSQLSource(name, driver, description, tables, db), nil
}

// NewSQLSource wraps an open database.
func NewSQLSource(name, driver, description string, tables []string, db *sql.DB) *SQLSource {
	return &SQLSource{
		Name:        name,
		Description: description,
		driver:      driver,
		tables:      tables,
		db:          db,
	}
}

// Close releases the database handle.
func (s *SQLSource) Close() error {
	return s.db.Close()
}

// SchemaSummary describes the visible tables and their columns.
func (s *SQLSource) SchemaSummary(ctx context.Context) (string, error) {
	columns, err := s.columns(ctx)
	if err != nil {
		return "", fmt.Errorf("sql source %s: schema: %w", s.Name, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Database %q", s.Name)
	if s.Description != "" {
		fmt.Fprintf(&b, ": %s", s.Description)
	}
	b.WriteString("\n")

	for _, table := range s.visibleTables(columns) {
		fmt.Fprintf(&b, "- %s(%s)\n", table, strings.Join(columns[table], ", "))
	}
	return b.String(), nil
}

// columns returns "name type" entries per table
func (s *SQLSource) columns(ctx context.Context) (map[string][]string, error) {
	var query string
	switch s.driver {
	case DriverSQLite:
		query = `SELECT m.name, p.name, p.type
			FROM sqlite_master m JOIN pragma_table_info(m.name) p
			WHERE m.type = 'table' AND m.name NOT LIKE 'sqlite_%'
			ORDER BY m.name, p.cid`
	default:
		query = `SELECT table_name, column_name, data_type
			FROM information_schema.columns
			WHERE table_schema = current_schema()
			ORDER BY table_name, ordinal_position`
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var table, column, typ string
		if err := rows.Scan(&table, &column, &typ); err != nil {
			return nil, err
		}
		out[table] = append(out[table], strings.TrimSpace(column+" "+strings.ToLower(typ)))
	}
	return out, rows.Err()
}

func (s *SQLSource) visibleTables(columns map[string][]string) []string {
	if len(s.tables) > 0 {
		var out []string
		for _, t := range s.tables {
			if _, ok := columns[t]; ok {
				out = append(out, t)
			}
		}
		return out
	}

	out := make([]string, 0, len(columns))
	for t := range columns {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Query runs a single read-only statement and returns at most MaxSQLRows rows.
func (s *SQLSource) Query(ctx context.Context, query string) ([]map[string]interface{}, error) {
	query = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(query), ";"))
	if !readOnlyStatement.MatchString(query) {
		return nil, fmt.Errorf("only SELECT statements are allowed")
	}
	if strings.Contains(query, ";") {
		return nil, fmt.Errorf("multiple statements are not allowed")
	}

	// SQLite sources are expected to be opened with mode=ro
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: s.driver == DriverPostgres})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []map[string]interface{}
	for rows.Next() && len(out) < config.MaxSQLRows {
		values := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(map[string]interface{}, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
