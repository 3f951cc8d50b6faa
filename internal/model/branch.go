package model

import (
	"time"

	"github.com/google/uuid"
)

// Branch is an organization's physical location. StateCode determines the
// tax jurisdiction: matching origin/destination state codes make a movement
// intrastate (CGST+SGST), differing codes make it interstate (IGST).
type Branch struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index" json:"organization_id"`
	Name           string    `gorm:"type:varchar(120);not null" json:"name"`
	City           string    `gorm:"type:varchar(80)" json:"city"`
	StateCode      string    `gorm:"type:varchar(4);not null" json:"state_code"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
