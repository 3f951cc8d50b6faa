package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateBooking   = "CREATE_BOOKING"
	ActionCancelBooking   = "CANCEL_BOOKING"
	ActionLoadManifest    = "LOAD_MANIFEST"
	ActionUnloadManifest  = "UNLOAD_MANIFEST"
	ActionGenerateInvoice = "GENERATE_INVOICE"
	ActionRecordPayment   = "RECORD_PAYMENT"
	ActionRecordPOD       = "RECORD_POD"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrganizationID uuid.UUID  `gorm:"type:uuid;not null;index" json:"organization_id"`
	UserID         *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // nullable for automated jobs
	Action         string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID       string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName     string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // human readable label
	Details        string     `gorm:"type:jsonb" json:"details"`                      // serialized JSON payload
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`
}
