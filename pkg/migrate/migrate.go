package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"sync"

	"github.com/pressly/goose/v3"
)

// DefaultDir is the on-disk location of the bundled migrations, relative to the
// repository root. The same files are compiled into every binary.
const DefaultDir = "pkg/migrate/migrations"

const (
	dialect     = "postgres"
	embeddedDir = "migrations"
)

//go:embed migrations/*.sql
var bundled embed.FS

// goose keeps its dialect and base filesystem in package globals.
var gooseMu sync.Mutex

// Source selects where goose reads migrations from. An empty Dir means the
// copies compiled into the binary.
type Source struct {
	Dir string
}

func (s Source) resolve() (fs.FS, string) {
	if s.Dir == "" {
		return bundled, embeddedDir
	}
	return os.DirFS(s.Dir), "."
}

func (s Source) String() string {
	if s.Dir == "" {
		return "embedded"
	}
	return s.Dir
}

func withGoose(src Source, fn func(dir string) error) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	fsys, dir := src.resolve()
	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)
	return fn(dir)
}

// Run executes a goose command such as up, down, redo or status.
func Run(ctx context.Context, db *sql.DB, src Source, command string, args ...string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	return withGoose(src, func(dir string) error {
		if err := goose.RunContext(ctx, command, db, dir, args...); err != nil {
			return fmt.Errorf("goose %s (%s): %w", command, src, err)
		}
		return nil
	})
}

// CurrentVersion reports the newest applied migration.
func CurrentVersion(ctx context.Context, db *sql.DB) (int64, error) {
	if db == nil {
		return 0, fmt.Errorf("db is required")
	}
	var version int64
	err := withGoose(Source{}, func(string) error {
		v, err := goose.GetDBVersionContext(ctx, db)
		version = v
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("get db version: %w", err)
	}
	return version, nil
}

// ParseVersion accepts a YYYYMMDDHHMMSS migration version.
func ParseVersion(raw string) (int64, error) {
	if len(raw) != 14 {
		return 0, fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS)", raw)
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS)", raw)
	}
	return v, nil
}

// MigrateToVersion moves the schema up or down until it matches target.
func MigrateToVersion(ctx context.Context, db *sql.DB, src Source, target int64) error {
	current, err := CurrentVersion(ctx, db)
	if err != nil {
		return err
	}
	if current == target {
		return nil
	}
	return withGoose(src, func(dir string) error {
		if current < target {
			if err := goose.UpToContext(ctx, db, dir, target); err != nil {
				return fmt.Errorf("goose up-to %d: %w", target, err)
			}
			return nil
		}
		if err := goose.DownToContext(ctx, db, dir, target); err != nil {
			return fmt.Errorf("goose down-to %d: %w", target, err)
		}
		return nil
	})
}
