// Package migrate owns the postgres schema: goose migrations embedded in the
// binary, a dev auto-runner, and helpers for authoring and validating files.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"

	"github.com/pressly/goose/v3"

	"github.com/angelmondragon/ecommerce-backend/pkg/db"
)

// DefaultDir is where the migrations live in the source tree. Asking for it
// reads the copy embedded at build time.
const DefaultDir = "pkg/migrate/migrations"

//go:embed migrations/*.sql
var embedded embed.FS

// Source resolves dir to the filesystem goose reads from.
func Source(dir string) (fs.FS, error) {
	if dir == "" || dir == DefaultDir {
		return fs.Sub(embedded, "migrations")
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("migrations dir: %w", err)
	}
	return os.DirFS(dir), nil
}

func Dialect(driver string) goose.Dialect {
	if driver == db.DriverSQLite {
		return goose.DialectSQLite3
	}
	return goose.DialectPostgres
}

func provider(conn *sql.DB, dialect goose.Dialect, migrations fs.FS) (*goose.Provider, error) {
	if conn == nil {
		return nil, errors.New("db is required")
	}
	p, err := goose.NewProvider(dialect, conn, migrations)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return p, nil
}

// Run executes up, down or status and reports each step to out.
func Run(ctx context.Context, conn *sql.DB, dialect goose.Dialect, migrations fs.FS, command string, out io.Writer) error {
	p, err := provider(conn, dialect, migrations)
	if err != nil {
		return err
	}
	switch command {
	case "up":
		results, err := p.Up(ctx)
		report(out, results...)
		return wrapGoose("up", err)
	case "down":
		result, err := p.Down(ctx)
		if result != nil {
			report(out, result)
		}
		return wrapGoose("down", err)
	case "status":
		statuses, err := p.Status(ctx)
		if err != nil {
			return wrapGoose("status", err)
		}
		for _, s := range statuses {
			applied := "-"
			if !s.AppliedAt.IsZero() {
				applied = s.AppliedAt.UTC().Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(out, "%-8s %-20s %s\n", s.State, applied, s.Source.Path)
		}
		return nil
	}
	return fmt.Errorf("unknown migrate command %q", command)
}

// MigrateToVersion moves the schema up or down to target, a
// YYYYMMDDHHMMSS version.
func MigrateToVersion(ctx context.Context, conn *sql.DB, dialect goose.Dialect, migrations fs.FS, target string, out io.Writer) error {
	version, err := strconv.ParseInt(target, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", target, err)
	}
	p, err := provider(conn, dialect, migrations)
	if err != nil {
		return err
	}
	current, err := p.GetDBVersion(ctx)
	if err != nil {
		return wrapGoose("version", err)
	}

	var results []*goose.MigrationResult
	switch {
	case current == version:
		return nil
	case current < version:
		results, err = p.UpTo(ctx, version)
	default:
		results, err = p.DownTo(ctx, version)
	}
	report(out, results...)
	return wrapGoose(fmt.Sprintf("migrate to %d", version), err)
}

func report(out io.Writer, results ...*goose.MigrationResult) {
	if out == nil {
		return
	}
	for _, r := range results {
		if r == nil || r.Source == nil {
			continue
		}
		fmt.Fprintf(out, "%-4s %d %s (%s)\n", r.Direction, r.Source.Version, r.Source.Path, r.Duration)
	}
}

func wrapGoose(op string, err error) error {
	if err == nil || errors.Is(err, goose.ErrNoNextVersion) {
		return nil
	}
	return fmt.Errorf("goose %s: %w", op, err)
}
