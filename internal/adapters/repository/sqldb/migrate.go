package sqldb

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strings"
)

//go:embed migrations
var migrationFiles embed.FS

// Migrate applies every up migration of the dialect in order. Migrations are
// written to be idempotent so this runs on every start.
func Migrate(ctx context.Context, db *sql.DB, dialect Dialect) error {
	dir := path.Join("migrations", string(dialect))
	entries, err := fs.ReadDir(migrationFiles, dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".up.sql") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		content, err := fs.ReadFile(migrationFiles, path.Join(dir, name))
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", name, err)
		}
		if _, err := db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", name, err)
		}
	}

	return nil
}

// MigrationContent returns the SQL of the single migration whose file name
// contains name, e.g. "create_votes".
func MigrationContent(dialect Dialect, name string, down bool) ([]byte, error) {
	suffix := ".up.sql"
	if down {
		suffix = ".down.sql"
	}

	pattern, err := regexp.Compile(fmt.Sprintf(`^.*%s.*%s$`, regexp.QuoteMeta(name), regexp.QuoteMeta(suffix)))
	if err != nil {
		return nil, fmt.Errorf("invalid migration name: %w", err)
	}

	dir := path.Join("migrations", string(dialect))
	entries, err := fs.ReadDir(migrationFiles, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if pattern.MatchString(entry.Name()) {
			return fs.ReadFile(migrationFiles, path.Join(dir, entry.Name()))
		}
	}

	return nil, fmt.Errorf("migration file not found")
}
