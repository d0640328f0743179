package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a sellable catalog entry; Price is the authority for cart subtotals.
type Product struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name            string          `gorm:"column:name;type:varchar(100);not null"`
	Description     string          `gorm:"column:description;type:varchar(500);not null;default:''"`
	CategoryID      uuid.UUID       `gorm:"column:category_id;type:uuid;not null;index"`
	Category        *Category       `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT"`
	Price           decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Stock           int             `gorm:"column:stock;not null;default:0"`
	ImageURL        string          `gorm:"column:image_url;type:text;not null;default:''"`
	PublicationDate time.Time       `gorm:"column:publication_date;not null"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	if p.PublicationDate.IsZero() {
		p.PublicationDate = time.Now().UTC()
	}
	return nil
}
