package store

import (
	"database/sql"
	"fmt"

	"swarmcore/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// DB is the swarm's durable store: snapshot tables, audit log, outbox and
// operator accounts.
type DB struct {
	*sql.DB
	dialect Dialect
}

func Open(cfg *config.DatabaseConfig) (*DB, error) {
	switch cfg.Driver {
	case "sqlite":
		dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", cfg.SQLite.Path)
		// single writer
		return open("sqlite", dsn, sqliteDialect{}, 1)
	case "postgres":
		pg := cfg.Postgres
		dsn := fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
			pg.Host, pg.Port, pg.Database, pg.User, pg.Password, pg.SSLMode)
		return open("pgx", dsn, postgresDialect{}, 0)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

func open(driverName, dsn string, d Dialect, maxOpen int) (*DB, error) {
	sqlDB, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.Name(), err)
	}
	if maxOpen > 0 {
		sqlDB.SetMaxOpenConns(maxOpen)
	}
	if _, err := sqlDB.Exec(d.Schema()); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate %s: %w", d.Name(), err)
	}
	return &DB{DB: sqlDB, dialect: d}, nil
}

func (db *DB) Driver() string { return db.dialect.Name() }

// Q rewrites a SQLite-form query for the open backend.
func (db *DB) Q(query string) string {
	return rewrite(db.dialect, query)
}
