package catalog

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/flowzz-ingest/pkg/db/models"
	pkgerrors "github.com/angelmondragon/flowzz-ingest/pkg/errors"
)

// Repository persists catalog rows keyed by source_id.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a catalog repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Upsert inserts the record or refreshes every non-key column of the existing
// row with the same source_id.
func (r *Repository) Upsert(ctx context.Context, record *models.CatalogRecord) error {
	if record == nil || record.SourceID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "catalog record requires a source id")
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "source_id"}},
			DoUpdates: clause.AssignmentColumns(models.CatalogUpdateColumns),
		}).
		Create(record).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "upsert catalog record")
	}
	return nil
}

// ListSourceIDs returns every stored source_id in ascending order.
func (r *Repository) ListSourceIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&models.CatalogRecord{}).
		Order("source_id ASC").
		Pluck("source_id", &ids).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "list catalog source ids")
	}
	return ids, nil
}

// FindBySourceID loads a single catalog row.
func (r *Repository) FindBySourceID(ctx context.Context, sourceID int64) (*models.CatalogRecord, error) {
	var record models.CatalogRecord
	err := r.db.WithContext(ctx).Where("source_id = ?", sourceID).Take(&record).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "find catalog record")
	}
	return &record, nil
}
