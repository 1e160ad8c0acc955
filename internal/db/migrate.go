package db

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Migrate applies the schema for the given models using Gorm's AutoMigrate and logs progress.
func Migrate(ctx context.Context, conn *gorm.DB, logger *logrus.Logger, component string, models ...any) error {
	if conn == nil {
		return eris.New("gorm DB is required")
	}
	if len(models) == 0 {
		return eris.Errorf("%s: no models to migrate", component)
	}

	logFields := logrus.Fields{"component": component + ".migrate"}
	if logger != nil {
		logger.WithFields(logFields).Info("applying schema")
	}

	if err := conn.WithContext(ctx).AutoMigrate(models...); err != nil {
		if logger != nil {
			logger.WithFields(logFields).WithField("error", err.Error()).Error("schema migration failed")
		}
		return eris.Wrapf(err, "auto migrating %s schema", component)
	}

	if logger != nil {
		logger.WithFields(logFields).Info("schema migration complete")
	}

	return nil
}
