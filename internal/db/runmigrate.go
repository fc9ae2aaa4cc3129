package db

import (
	"errors"
	"fmt"

	migrate "github.com/golang-migrate/migrate/v4"
	// The following blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sirupsen/logrus"
)

// RunSQLMigrations applies the SQL files in dir to a PostgreSQL database.
// dsn may be in URL or key=value form.
func RunSQLMigrations(dsn, dir string, log logrus.FieldLogger) error {
	m, err := migrate.New("file://"+dir, ToURLDSN(NormalizeDSN(dsn)))
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	version, dirty, _ := m.Version()
	log.WithFields(logrus.Fields{"version": version, "dirty": dirty}).Info("[db] sql migrations applied")
	return nil
}
