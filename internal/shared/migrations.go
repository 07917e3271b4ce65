package shared

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

//go:embed sql/*.sql
var migrationFiles embed.FS

// Migration represents a database migration with up and down SQL.
type Migration struct {
	Version int
	Up      string
	Down    string
}

// loadMigrations reads all migration files from the embedded filesystem and returns them sorted by version.
//
// File names follow "NNNN_description_up.sql" / "NNNN_description_down.sql".
func loadMigrations() ([]Migration, error) {
	entries, err := migrationFiles.ReadDir("sql")
	if err != nil {
		return nil, fmt.Errorf("failed to read migration directory: %w", err)
	}

	byVersion := make(map[int]*Migration)

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}

		prefix, _, ok := strings.Cut(name, "_")
		if !ok {
			continue
		}

		version, err := strconv.Atoi(prefix)
		if err != nil {
			continue
		}

		content, err := migrationFiles.ReadFile(path.Join("sql", name))
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file %s: %w", name, err)
		}

		m, ok := byVersion[version]
		if !ok {
			m = &Migration{Version: version}
			byVersion[version] = m
		}

		switch {
		case strings.HasSuffix(name, "_up.sql"):
			m.Up = string(content)
		case strings.HasSuffix(name, "_down.sql"):
			m.Down = string(content)
		}
	}

	migrations := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		if m.Up == "" || m.Down == "" {
			return nil, fmt.Errorf("incomplete migration for version %d", m.Version)
		}
		migrations = append(migrations, *m)
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

const createMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`

// AppliedMigrations lists the recorded migration versions in ascending order.
func AppliedMigrations(ctx context.Context, db *sql.DB) ([]int, error) {
	if _, err := db.ExecContext(ctx, createMigrationsTable); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("failed to list applied migrations: %w", err)
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// RunMigrations applies every embedded migration not yet recorded in schema_migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	migrations, err := loadMigrations()
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	applied, err := AppliedMigrations(ctx, db)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if lo.Contains(applied, m.Version) {
			continue
		}
		if err := inTx(ctx, db, m.Up, "INSERT INTO schema_migrations (version) VALUES (?)", m.Version); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", m.Version, err)
		}
	}
	return nil
}

// RollbackMigration rolls back the most recent migration.
func RollbackMigration(ctx context.Context, db *sql.DB) error {
	migrations, err := loadMigrations()
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	applied, err := AppliedMigrations(ctx, db)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		return fmt.Errorf("no migrations to rollback")
	}
	current := applied[len(applied)-1]

	m, ok := lo.Find(migrations, func(m Migration) bool { return m.Version == current })
	if !ok {
		return fmt.Errorf("migration version %d not found", current)
	}
	if err := inTx(ctx, db, m.Down, "DELETE FROM schema_migrations WHERE version = ?", m.Version); err != nil {
		return fmt.Errorf("failed to rollback migration %d: %w", m.Version, err)
	}
	return nil
}

// inTx runs every statement of script followed by the bookkeeping statement in a single transaction.
func inTx(ctx context.Context, db *sql.DB, script, record string, version int) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range splitStatements(script) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute statement: %w\nStatement: %s", err, stmt)
		}
	}

	if _, err := tx.ExecContext(ctx, record, version); err != nil {
		return err
	}

	return tx.Commit()
}

// splitStatements strips "--" comments and splits a script on semicolons, dropping empty statements.
func splitStatements(script string) []string {
	var lines []string
	for _, line := range strings.Split(script, "\n") {
		if idx := strings.Index(line, "--"); idx >= 0 {
			line = line[:idx]
		}
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}

	var stmts []string
	for _, stmt := range strings.Split(strings.Join(lines, "\n"), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}
