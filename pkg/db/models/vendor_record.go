package models

import "time"

// VendorRecord is a pharmacy offering flowzz products. Name is the natural key;
// the same pharmacy seen under different products collapses into one row.
type VendorRecord struct {
	ID           uint      `gorm:"column:id;primaryKey;autoIncrement"`
	Name         string    `gorm:"column:name;not null;uniqueIndex:vendor_name_key"`
	Address      *string   `gorm:"column:address"`
	Email        *string   `gorm:"column:email"`
	Phone        *string   `gorm:"column:phone"`
	Homepage     *string   `gorm:"column:homepage"`
	ProductCount *int      `gorm:"column:product_count"`
	AveragePrice *string   `gorm:"column:average_price"`
	ProfileURL   *string   `gorm:"column:profile_url"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (VendorRecord) TableName() string { return "vendor" }

var VendorUpdateColumns = []string{
	"address",
	"email",
	"phone",
	"homepage",
	"product_count",
	"average_price",
	"profile_url",
	"updated_at",
}
