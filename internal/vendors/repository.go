package vendors

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/flowzz-ingest/pkg/db/models"
	pkgerrors "github.com/angelmondragon/flowzz-ingest/pkg/errors"
)

// Repository persists vendor rows keyed by name.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Upsert inserts the vendor or overwrites the contact fields of the row with
// the same name.
func (r *Repository) Upsert(ctx context.Context, record *models.VendorRecord) error {
	if record == nil || strings.TrimSpace(record.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "vendor record requires a name")
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns(models.VendorUpdateColumns),
		}).
		Create(record).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "upsert vendor record")
	}
	return nil
}

func (r *Repository) FindByName(ctx context.Context, name string) (*models.VendorRecord, error) {
	var record models.VendorRecord
	if err := r.db.WithContext(ctx).Where("name = ?", name).Take(&record).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "find vendor record")
	}
	return &record, nil
}

// Count returns the number of stored vendors.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.VendorRecord{}).Count(&n).Error; err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "count vendors")
	}
	return n, nil
}
