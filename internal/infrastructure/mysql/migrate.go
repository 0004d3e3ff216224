package mysql

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"

	"github.com/fastygo/todo/assets/migrations"
)

// RunMigrations brings the schema of db up to date. An empty path selects the embedded migrations.
func RunMigrations(db *sql.DB, path string, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	driver, err := mysql.WithInstance(db, &mysql.Config{})
	if err != nil {
		return err
	}

	var m *migrate.Migrate
	if path != "" {
		m, err = migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", filepath.ToSlash(path)), "mysql", driver)
	} else {
		src, srcErr := iofs.New(migrations.FS, migrations.MySQL)
		if srcErr != nil {
			return srcErr
		}
		m, err = migrate.NewWithInstance("iofs", src, "mysql", driver)
	}
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	version, _, _ := m.Version()
	logger.Info("database migrations applied", zap.String("driver", "mysql"), zap.Uint("version", version))
	return nil
}
