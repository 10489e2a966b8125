package db

import (
	"database/sql"
	"embed"
	"path"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/marksync/errors"
	"github.com/teranos/marksync/logger"
)

//go:embed sqlite/migrations/*.sql
var migrations embed.FS

const migrationsDir = "sqlite/migrations"

// migration is one embedded schema step. Version is the numeric file prefix.
type migration struct {
	Version string
	File    string
}

// Migrate brings the schema up to date: remote nodes, the delete journal,
// model versions and the persisted local model. A nil logger runs silently.
func Migrate(db *sql.DB, log *zap.SugaredLogger) error {
	all, err := embeddedMigrations()
	if err != nil {
		return err
	}
	applied, err := appliedVersions(db)
	if err != nil {
		return err
	}

	var ran int
	for _, m := range all {
		if applied[m.Version] {
			if log != nil {
				log.Debugw("Migration already applied",
					logger.FieldMigration, m.File,
					logger.FieldSchemaVersion, m.Version)
			}
			continue
		}
		// everything after 000 needs the bookkeeping table
		if len(applied) == 0 && ran == 0 && m.Version != "000" {
			return errors.Newf("schema_migrations missing and first pending migration is %s", m.File)
		}

		start := time.Now()
		if err := applyMigration(db, m); err != nil {
			return err
		}
		ran++
		if log != nil {
			log.Infow("Applied migration",
				logger.FieldMigration, m.File,
				logger.FieldSchemaVersion, m.Version,
				logger.FieldDurationMS, time.Since(start).Milliseconds())
		}
	}

	if log != nil {
		log.Infow("Schema up to date",
			logger.FieldCount, ran,
			logger.FieldTotalCount, len(all))
	}
	return nil
}

// embeddedMigrations lists the .sql files in version order.
func embeddedMigrations() ([]migration, error) {
	entries, err := migrations.ReadDir(migrationsDir)
	if err != nil {
		return nil, errors.Wrap(err, "read migrations")
	}
	var out []migration
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		version, _, _ := strings.Cut(e.Name(), "_")
		out = append(out, migration{Version: version, File: e.Name()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].File < out[j].File })
	return out, nil
}

// appliedVersions returns the recorded versions, empty on a fresh database.
func appliedVersions(db *sql.DB) (map[string]bool, error) {
	var tables int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'schema_migrations'").Scan(&tables)
	if err != nil {
		return nil, errors.Wrap(err, "inspect schema")
	}
	applied := make(map[string]bool)
	if tables == 0 {
		return applied, nil
	}

	rows, err := db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, errors.Wrap(err, "list applied migrations")
	}
	defer rows.Close()
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, errors.Wrap(err, "scan migration version")
		}
		applied[v] = true
	}
	return applied, errors.Wrap(rows.Err(), "list applied migrations")
}

// applyMigration runs one file and records it in the same transaction.
func applyMigration(db *sql.DB, m migration) error {
	body, err := migrations.ReadFile(path.Join(migrationsDir, m.File))
	if err != nil {
		return errors.Wrapf(err, "read %s", m.File)
	}

	tx, err := db.Begin()
	if err != nil {
		return errors.Wrapf(err, "begin %s", m.File)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(string(body)); err != nil {
		return errors.Wrapf(err, "execute %s", m.File)
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", m.Version); err != nil {
		return errors.Wrapf(err, "record %s", m.File)
	}
	return errors.Wrapf(tx.Commit(), "commit %s", m.File)
}
