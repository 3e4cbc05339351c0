package migration

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"

	"github.com/orris-inc/referrals/internal/shared/logger"
)

//go:embed scripts/*.sql
var embeddedScripts embed.FS

// Supported goose dialects.
const (
	DialectMySQL  = "mysql"
	DialectSQLite = "sqlite3"
)

// Migration states reported by Status.
const (
	StateApplied = "applied"
	StatePending = "pending"
)

// ScriptStatus is the state of one migration script.
type ScriptStatus struct {
	Version int64
	Path    string
	State   string
}

// GooseStrategy runs the embedded SQL scripts with goose.
type GooseStrategy struct {
	dialect goose.Dialect
	// scriptsDir is where Create writes new scripts.
	scriptsDir string
	logger     logger.Interface
}

// NewGooseStrategy creates a strategy for dialect ("mysql" or "sqlite3").
func NewGooseStrategy(dialect, scriptsDir string, log logger.Interface) *GooseStrategy {
	return &GooseStrategy{
		dialect:    goose.Dialect(dialect),
		scriptsDir: scriptsDir,
		logger:     log.With("component", "migration.goose"),
	}
}

func (s *GooseStrategy) provider(db *gorm.DB) (*goose.Provider, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return s.providerFor(sqlDB)
}

func (s *GooseStrategy) providerFor(sqlDB *sql.DB) (*goose.Provider, error) {
	scripts, err := fs.Sub(embeddedScripts, "scripts")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded scripts: %w", err)
	}

	provider, err := goose.NewProvider(s.dialect, sqlDB, scripts)
	if err != nil {
		return nil, fmt.Errorf("failed to create goose provider: %w", err)
	}
	return provider, nil
}

// Migrate applies every pending script.
func (s *GooseStrategy) Migrate(ctx context.Context, db *gorm.DB) error {
	provider, err := s.provider(db)
	if err != nil {
		return err
	}

	currentVersion, err := provider.GetDBVersion(ctx)
	if err != nil {
		s.logger.Errorw("failed to get current version", "error", err)
		return fmt.Errorf("failed to get current version: %w", err)
	}

	s.logger.Infow("starting goose migration", "dialect", s.dialect, "version", currentVersion)

	results, err := provider.Up(ctx)
	if err != nil {
		s.logger.Errorw("migration failed", "error", err)
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	finalVersion, err := provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get final version: %w", err)
	}

	s.logger.Infow("migration completed successfully",
		"from_version", currentVersion,
		"to_version", finalVersion,
		"applied", len(results))

	return nil
}

// MigrateDown rolls back the given number of scripts.
func (s *GooseStrategy) MigrateDown(ctx context.Context, db *gorm.DB, steps int) error {
	provider, err := s.provider(db)
	if err != nil {
		return err
	}

	for i := 0; i < steps; i++ {
		result, err := provider.Down(ctx)
		if err != nil {
			s.logger.Errorw("down migration failed", "step", i+1, "error", err)
			return fmt.Errorf("failed to run down migration: %w", err)
		}
		if result == nil {
			break
		}
	}

	s.logger.Infow("down migration completed successfully", "steps", steps)
	return nil
}

// GetVersion returns the current schema version.
func (s *GooseStrategy) GetVersion(ctx context.Context, db *gorm.DB) (int64, error) {
	provider, err := s.provider(db)
	if err != nil {
		return 0, err
	}

	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get version: %w", err)
	}
	return version, nil
}

// Status lists every script with its state.
func (s *GooseStrategy) Status(ctx context.Context, db *gorm.DB) ([]ScriptStatus, error) {
	provider, err := s.provider(db)
	if err != nil {
		return nil, err
	}

	statuses, err := provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}

	out := make([]ScriptStatus, 0, len(statuses))
	for _, st := range statuses {
		state := StatePending
		if st.State == goose.StateApplied {
			state = StateApplied
		}
		out = append(out, ScriptStatus{
			Version: st.Source.Version,
			Path:    st.Source.Path,
			State:   state,
		})
	}
	return out, nil
}

// Create writes a new empty SQL script into the scripts directory.
func (s *GooseStrategy) Create(name string) error {
	if err := goose.Create(nil, s.scriptsDir, name, "sql"); err != nil {
		return fmt.Errorf("failed to create migration: %w", err)
	}

	s.logger.Infow("migration created successfully", "name", name, "dir", s.scriptsDir)
	return nil
}
