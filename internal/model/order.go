package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order represents one procurement request moving through the lifecycle.
// Status is mutated exclusively by the order service; every change appends a
// StatusHistory row in the same transaction. Orders are never deleted —
// terminal orders retain their full history.
type Order struct {
	ID             uuid.UUID       `gorm:"type:uuid;default:(gen_random_uuid());primaryKey" json:"id"`
	OrderNo        string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"order_no"` // BEST-YYYYMMDD-NNNN
	Status         OrderStatus     `gorm:"type:varchar(30);not null;index" json:"status"`
	RequesterID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"requester_id"`
	Requester      *User           `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	CostCenter     string          `gorm:"type:varchar(50);not null" json:"cost_center"`
	SpecialRequest string          `gorm:"type:text" json:"special_request"`
	Justification  string          `gorm:"type:text" json:"justification"`
	Items          []OrderItem     `gorm:"foreignKey:OrderID" json:"items"`
	Approvals      []Approval      `gorm:"foreignKey:OrderID" json:"approvals,omitempty"`
	History        []StatusHistory `gorm:"foreignKey:OrderID" json:"history,omitempty"`
	Comments       []Comment       `gorm:"foreignKey:OrderID" json:"comments,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// OrderItem is a line item within an Order.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:(gen_random_uuid());primaryKey" json:"id"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product   Product         `gorm:"foreignKey:ProductID" json:"product"`
	Quantity  int             `gorm:"type:int;not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"` // price snapshot at order time
}

// StatusHistory is one immutable audit record of a status transition.
// FromStatus is nil only for the creation record. Rows are append-only and the
// latest row's ToStatus always equals the order's current status.
type StatusHistory struct {
	ID         uuid.UUID    `gorm:"type:uuid;default:(gen_random_uuid());primaryKey" json:"id"`
	OrderID    uuid.UUID    `gorm:"type:uuid;not null;index" json:"order_id"`
	FromStatus *OrderStatus `gorm:"type:varchar(30)" json:"from_status"`
	ToStatus   OrderStatus  `gorm:"type:varchar(30);not null" json:"to_status"`
	ActorID    *uuid.UUID   `gorm:"type:uuid" json:"actor_id"`
	Actor      *User        `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
	Note       string       `gorm:"type:text" json:"note"`
	CreatedAt  time.Time    `gorm:"index" json:"created_at"`
}

// Comment is a free-text remark attached to an order.
type Comment struct {
	ID        uuid.UUID `gorm:"type:uuid;default:(gen_random_uuid());primaryKey" json:"id"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	AuthorID  uuid.UUID `gorm:"type:uuid;not null" json:"author_id"`
	Author    *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// RequiresApproval decides whether the order must pass through
// PENDING_APPROVAL: true if any line item's product is flagged for approval or
// the order carries a non-empty special request. A whitespace-only special
// request does not count. Items must be loaded with their products.
func RequiresApproval(order *Order) bool {
	if strings.TrimSpace(order.SpecialRequest) != "" {
		return true
	}
	for _, item := range order.Items {
		if item.Product.RequiresApproval {
			return true
		}
	}
	return false
}
