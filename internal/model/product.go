package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalog entry requesters can order. RequiresApproval feeds the
// approval requirement check; ResponsibleRole routes the order to the staff
// group that fulfills it. Deactivated products soft-delete and can no longer
// be ordered.
type Product struct {
	ID               uuid.UUID       `gorm:"type:uuid;default:(gen_random_uuid());primaryKey" json:"id"`
	SKU              string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"sku"`
	Name             string          `gorm:"type:varchar(255);not null" json:"name"`
	Description      string          `gorm:"type:text" json:"description"`
	Category         string          `gorm:"type:varchar(100);index" json:"category"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	RequiresApproval bool            `gorm:"not null;default:false" json:"requires_approval"`
	ResponsibleRole  Role            `gorm:"type:varchar(30);not null;default:'IT_SUPPORT'" json:"responsible_role"` // IT_SUPPORT or EMPFANG
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	DeletedAt        gorm.DeletedAt  `gorm:"index" json:"-"`
}
