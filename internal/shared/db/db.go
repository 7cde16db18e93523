package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Drivers aceitos por Connect (mesmos nomes do database/sql)
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Connect abre a conexão do driver configurado e valida com ping
func Connect(driver, dsn string) (*sql.DB, error) {
	switch driver {
	case DriverPostgres:
		return ConnectPostgres(dsn)
	case DriverSQLite:
		return ConnectSQLite(dsn)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
}

func ConnectPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open(DriverPostgres, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}

// ConnectSQLite abre (ou cria) o arquivo SQLite. Uma única conexão evita
// SQLITE_BUSY nas escritas do importer e do recorder.
func ConnectSQLite(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	db, err := sql.Open(DriverSQLite, path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}
