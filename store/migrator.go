package store

import (
	"context"
	"embed"
	"fmt"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/Arvoid00/seamless-ai/internal/version"
)

// Schema version is stored in system_setting under schemaVersionSettingName.
// New installations apply LATEST.sql for their driver and record the current
// minor version. There are no incremental migrations yet; the version check
// exists so future releases can add them.

//go:embed migration
var migrationFS embed.FS

const schemaVersionSettingName = "schema_version"

// Migrate initializes the database schema when needed.
func (s *Store) Migrate(ctx context.Context) error {
	initialized, err := s.driver.IsInitialized(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to check database initialization")
	}

	if !initialized {
		if err := s.applyLatestSchema(ctx); err != nil {
			return errors.Wrap(err, "failed to apply latest schema")
		}
		if err := s.setSchemaVersion(ctx, version.GetCurrentVersion(s.profile.Mode)); err != nil {
			return errors.Wrap(err, "failed to record schema version")
		}
		slog.Info("database initialized", slog.String("driver", s.profile.Driver))
		return nil
	}

	current, err := s.getSchemaVersion(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to read schema version")
	}
	if current != "" && version.IsVersionGreaterThan(current, version.GetCurrentVersion(s.profile.Mode)) {
		return errors.Errorf("database schema version %s is newer than binary version %s", current, version.GetCurrentVersion(s.profile.Mode))
	}
	return nil
}

func (s *Store) applyLatestSchema(ctx context.Context) error {
	filePath := fmt.Sprintf("migration/%s/LATEST.sql", s.profile.Driver)
	buf, err := migrationFS.ReadFile(filePath)
	if err != nil {
		return errors.Wrapf(err, "failed to read latest schema %q", filePath)
	}

	if _, err := s.driver.GetDB().ExecContext(ctx, string(buf)); err != nil {
		return errors.Wrap(err, "failed to execute latest schema")
	}
	return nil
}

func (s *Store) getSchemaVersion(ctx context.Context) (string, error) {
	var value string
	row := s.driver.GetDB().QueryRowContext(ctx,
		"SELECT value FROM system_setting WHERE name = $1", schemaVersionSettingName)
	if err := row.Scan(&value); err != nil {
		// The setting row may be absent on databases initialized before
		// version tracking was added.
		return "", nil
	}
	return value, nil
}

func (s *Store) setSchemaVersion(ctx context.Context, v string) error {
	_, err := s.driver.GetDB().ExecContext(ctx,
		"INSERT INTO system_setting (name, value) VALUES ($1, $2)", schemaVersionSettingName, v)
	return err
}
