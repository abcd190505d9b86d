package store

import (
	"fmt"
	"strings"
	"time"
)

// Dialect is one SQL backend. Queries are written in SQLite form and
// rewritten for the open backend by Q.
type Dialect interface {
	Name() string
	Schema() string
	Placeholder(n int) string
	Now() string
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string           { return "sqlite" }
func (sqliteDialect) Schema() string         { return schemaSQLite }
func (sqliteDialect) Placeholder(int) string { return "?" }
func (sqliteDialect) Now() string            { return "datetime('now','localtime')" }

type postgresDialect struct{}

func (postgresDialect) Name() string             { return "postgres" }
func (postgresDialect) Schema() string           { return schemaPostgres }
func (postgresDialect) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }
func (postgresDialect) Now() string              { return "NOW()" }

func rewrite(d Dialect, query string) string {
	query = strings.ReplaceAll(query, sqliteDialect{}.Now(), d.Now())
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r != '?' {
			b.WriteRune(r)
			continue
		}
		n++
		b.WriteString(d.Placeholder(n))
	}
	return b.String()
}

// Rebind rewrites ? placeholders to $1, $2, ... for PostgreSQL.
func Rebind(query string) string {
	return rewrite(postgresDialect{}, query)
}

var timeLayouts = []string{time.DateTime, time.RFC3339Nano, "2006-01-02 15:04:05-07:00"}

// parseTime reads a scanned timestamp: pgx hands back time.Time, SQLite
// hands back text.
func parseTime(v any) time.Time {
	if t, ok := v.(time.Time); ok {
		return t
	}
	s, _ := v.(string)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
