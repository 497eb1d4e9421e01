package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/flowzz-ingest/pkg/enums"
)

// CatalogRecord is one flowzz product listing, keyed by the upstream id.
type CatalogRecord struct {
	ID             uint                `gorm:"column:id;primaryKey;autoIncrement"`
	SourceID       int64               `gorm:"column:source_id;not null;uniqueIndex:catalog_source_id_key"`
	ProductURL     string              `gorm:"column:product_url;not null"`
	ImageURL       string              `gorm:"column:image_url;not null;default:''"`
	Name           *string             `gorm:"column:name"`
	Category       enums.Category      `gorm:"column:category;type:varchar(50)"`
	Genetic        *string             `gorm:"column:genetic"`
	Cultivar       *string             `gorm:"column:cultivar"`
	Irradiation    enums.Irradiation   `gorm:"column:irradiation;type:varchar(20)"`
	Grower         *string             `gorm:"column:grower"`
	Origin         *string             `gorm:"column:origin"`
	Importer       *string             `gorm:"column:importer"`
	Rating         decimal.NullDecimal `gorm:"column:rating;type:numeric(3,1)"`
	RatingCount    *int                `gorm:"column:rating_count"`
	THC            decimal.NullDecimal `gorm:"column:thc;type:numeric(5,2)"`
	THCUnit        *string             `gorm:"column:thc_unit"`
	CBD            decimal.NullDecimal `gorm:"column:cbd;type:numeric(5,2)"`
	CBDUnit        *string             `gorm:"column:cbd_unit"`
	DeliveryStatus *string             `gorm:"column:delivery_status"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (CatalogRecord) TableName() string { return "catalog" }

// CatalogUpdateColumns lists every column refreshed when a source_id is seen again.
var CatalogUpdateColumns = []string{
	"product_url",
	"image_url",
	"name",
	"category",
	"genetic",
	"cultivar",
	"irradiation",
	"grower",
	"origin",
	"importer",
	"rating",
	"rating_count",
	"thc",
	"thc_unit",
	"cbd",
	"cbd_unit",
	"delivery_status",
	"updated_at",
}
