package db

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// Migrate aplica as migrations pendentes do driver. Abre conexão própria a
// partir do dsn e fecha ao terminar, então pode rodar antes de Connect.
func Migrate(driver, dsn string) error {
	dir, err := fs.Sub(migrationsFS, "migrations/"+driver)
	if err != nil {
		return fmt.Errorf("migrations for %s: %w", driver, err)
	}
	src, err := iofs.New(dir, ".")
	if err != nil {
		return fmt.Errorf("migrations source: %w", err)
	}

	url, err := migrationURL(driver, dsn)
	if err != nil {
		return err
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, url)
	if err != nil {
		return fmt.Errorf("migrate init: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

func migrationURL(driver, dsn string) (string, error) {
	switch driver {
	case DriverPostgres:
		return dsn, nil
	case DriverSQLite:
		return "sqlite://" + filepath.ToSlash(dsn), nil
	default:
		return "", fmt.Errorf("unsupported db driver %q", driver)
	}
}
