package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/flowzz-ingest/pkg/db"
	"github.com/angelmondragon/flowzz-ingest/pkg/db/models"
	"github.com/angelmondragon/flowzz-ingest/pkg/logger"
)

// Bootstrap makes sure the catalog and vendor tables exist. It is safe to
// call on every start.
func Bootstrap(ctx context.Context, client *db.Client, logg *logger.Logger) error {
	if client == nil {
		return fmt.Errorf("db client is required")
	}
	ctx = logg.WithField(ctx, "driver", client.Driver())

	if client.Driver() == db.DriverSQLite {
		logg.Info(ctx, "bootstrapping schema via automigrate")
		if err := client.DB().WithContext(ctx).AutoMigrate(&models.CatalogRecord{}, &models.VendorRecord{}); err != nil {
			return fmt.Errorf("automigrate: %w", err)
		}
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	logg.Info(ctx, "running goose migrations")
	if err := Run(ctx, sqlDB, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}
	logg.Info(ctx, "goose migrations completed")
	return nil
}
