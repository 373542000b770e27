package history

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	dlog "github.com/shapedtime/hoardhelper/internal/log"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB is the upload history database.
type DB struct {
	*sql.DB
	log zerolog.Logger
}

// NewDB opens (or creates) the sqlite file at dbPath and brings its schema
// up to date. ":memory:" works for tests.
func NewDB(dbPath string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	// one connection: ":memory:" stays a single database and writers never contend
	sqlDB.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode = WAL", "PRAGMA busy_timeout = 5000"} {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	db := &DB{DB: sqlDB, log: dlog.Component("history-db")}
	if err := db.upgrade(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// SchemaVersion returns the last applied migration, stored in user_version.
func (db *DB) SchemaVersion() (int, error) {
	var v int
	err := db.QueryRow("PRAGMA user_version").Scan(&v)
	return v, err
}

type schemaStep struct {
	version int
	file    string
}

// pendingSteps lists embedded migrations newer than current, oldest first.
// Files are named NNN_description.sql.
func pendingSteps(current int) ([]schemaStep, error) {
	files, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return nil, err
	}

	var steps []schemaStep
	for _, f := range files {
		prefix, _, ok := strings.Cut(strings.TrimPrefix(f, "migrations/"), "_")
		if !ok {
			continue
		}
		v, err := strconv.Atoi(prefix)
		if err != nil || v <= current {
			continue
		}
		steps = append(steps, schemaStep{version: v, file: f})
	}

	sort.Slice(steps, func(i, j int) bool { return steps[i].version < steps[j].version })
	return steps, nil
}

func (db *DB) upgrade() error {
	current, err := db.SchemaVersion()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	steps, err := pendingSteps(current)
	if err != nil {
		return fmt.Errorf("failed to list migrations: %w", err)
	}

	for _, s := range steps {
		script, err := migrationsFS.ReadFile(s.file)
		if err != nil {
			return err
		}

		db.log.Info().Int("version", s.version).Str("file", s.file).Msg("upgrading history schema")
		if err := db.applyStep(s.version, string(script)); err != nil {
			return fmt.Errorf("migration %s failed: %w", s.file, err)
		}
	}
	return nil
}

// applyStep runs one script and bumps user_version in the same transaction.
func (db *DB) applyStep(version int, script string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(script); err != nil {
		return err
	}
	// PRAGMA does not take bound parameters
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
		return err
	}
	return tx.Commit()
}

func (db *DB) Close() error {
	return db.DB.Close()
}
