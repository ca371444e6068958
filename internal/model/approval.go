package model

import (
	"time"

	"github.com/google/uuid"
)

// ApprovalStatus enum constants
const (
	ApprovalPending  = "PENDING"
	ApprovalApproved = "APPROVED"
	ApprovalRejected = "REJECTED"
)

// Approval is one staff member's pending or resolved decision on an order.
// At most one PENDING approval exists per (order, approver) pair; a resolved
// approval is never mutated again and never deleted.
type Approval struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:(gen_random_uuid());primaryKey" json:"id"`
	OrderID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_approvals_order_approver" json:"order_id"`
	Order      *Order     `gorm:"foreignKey:OrderID" json:"-"`
	ApproverID uuid.UUID  `gorm:"type:uuid;not null;index:idx_approvals_order_approver" json:"approver_id"`
	Approver   *User      `gorm:"foreignKey:ApproverID" json:"approver,omitempty"`
	Status     string     `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	Comment    string     `gorm:"type:text" json:"comment"`
	DecidedAt  *time.Time `json:"decided_at"` // nil while pending
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
