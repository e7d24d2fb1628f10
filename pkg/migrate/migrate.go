package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/pressly/goose/v3"
)

const DefaultDir = "pkg/migrate/migrations"

// Commands accepted by Run.
const (
	CommandUp     = "up"
	CommandDown   = "down"
	CommandStatus = "status"
)

// Report is one line per migration touched or inspected.
type Report []string

// DirFS exposes migrations stored on disk.
func DirFS(dir string) (fs.FS, error) {
	if dir == "" {
		return nil, fmt.Errorf("dir is required")
	}
	return os.DirFS(dir), nil
}

// EmbeddedFS exposes the migrations compiled into the binary.
func EmbeddedFS() fs.FS {
	sub, err := fs.Sub(Embedded, embeddedDir)
	if err != nil {
		panic(fmt.Sprintf("embedded migrations: %v", err))
	}
	return sub
}

func newProvider(db *sql.DB, fsys fs.FS) (*goose.Provider, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return provider, nil
}

// Run executes up, down or status against the migrations in fsys.
func Run(ctx context.Context, db *sql.DB, fsys fs.FS, command string) (Report, error) {
	provider, err := newProvider(db, fsys)
	if err != nil {
		return nil, err
	}
	defer provider.Close()

	switch command {
	case CommandUp:
		results, err := provider.Up(ctx)
		if err != nil {
			return nil, fmt.Errorf("goose up: %w", err)
		}
		return reportResults(results), nil
	case CommandDown:
		result, err := provider.Down(ctx)
		if err != nil {
			return nil, fmt.Errorf("goose down: %w", err)
		}
		return reportResults([]*goose.MigrationResult{result}), nil
	case CommandStatus:
		statuses, err := provider.Status(ctx)
		if err != nil {
			return nil, fmt.Errorf("goose status: %w", err)
		}
		report := make(Report, 0, len(statuses))
		for _, st := range statuses {
			line := fmt.Sprintf("%d %s %s", st.Source.Version, st.State, st.Source.Path)
			if !st.AppliedAt.IsZero() {
				line += " applied_at=" + st.AppliedAt.UTC().Format("2006-01-02T15:04:05Z")
			}
			report = append(report, line)
		}
		return report, nil
	default:
		return nil, fmt.Errorf("unknown migration command %q", command)
	}
}

// MigrateToVersion moves the schema up or down until version is the latest applied.
func MigrateToVersion(ctx context.Context, db *sql.DB, fsys fs.FS, version string) (Report, error) {
	target, err := strconv.ParseInt(version, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", version, err)
	}

	provider, err := newProvider(db, fsys)
	if err != nil {
		return nil, err
	}
	defer provider.Close()

	current, err := provider.GetDBVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("get db version: %w", err)
	}

	var results []*goose.MigrationResult
	switch {
	case current == target:
		return Report{fmt.Sprintf("already at version %d", target)}, nil
	case current < target:
		results, err = provider.UpTo(ctx, target)
	default:
		results, err = provider.DownTo(ctx, target)
	}
	if err != nil {
		return nil, fmt.Errorf("migrate %d -> %d: %w", current, target, err)
	}
	return reportResults(results), nil
}

func reportResults(results []*goose.MigrationResult) Report {
	report := make(Report, 0, len(results))
	for _, r := range results {
		if r == nil || r.Source == nil {
			continue
		}
		report = append(report, fmt.Sprintf("%s %d %s (%s)", r.Direction, r.Source.Version, r.Source.Path, r.Duration))
	}
	if len(report) == 0 {
		report = append(report, "no migrations to apply")
	}
	return report
}
