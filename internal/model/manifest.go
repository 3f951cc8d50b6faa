package model

import (
	"time"

	"github.com/google/uuid"
)

// Manifest status enum constants
const (
	ManifestCreated   = "CREATED"
	ManifestInTransit = "IN_TRANSIT"
	ManifestCompleted = "COMPLETED"
	ManifestCancelled = "CANCELLED"
)

var manifestTransitions = map[string][]string{
	ManifestCreated:   {ManifestInTransit, ManifestCancelled},
	ManifestInTransit: {ManifestCompleted, ManifestCancelled},
	ManifestCompleted: {},
	ManifestCancelled: {},
}

// CanTransitionManifest reports whether from -> to is a legal manifest edge.
func CanTransitionManifest(from, to string) bool {
	for _, next := range manifestTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ManifestLoadable reports whether bookings may still be added to or removed
// from a manifest in the given status.
func ManifestLoadable(status string) bool {
	return status != ManifestCompleted && status != ManifestCancelled
}

// Manifest (trip sheet) groups bookings for joint transport between two
// branches on one vehicle. Version guards read-then-write sequences on the
// row itself; bulk booking operations are additionally serialized per
// manifest by the service layer.
type Manifest struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_manifests_org_no" json:"organization_id"`
	ManifestNo     string    `gorm:"type:varchar(30);not null;uniqueIndex:idx_manifests_org_no" json:"manifest_no"`

	VehicleNumber string `gorm:"type:varchar(20);not null" json:"vehicle_number"`
	DriverName    string `gorm:"type:varchar(120);not null" json:"driver_name"`
	DriverPhone   string `gorm:"type:varchar(20)" json:"driver_phone"`

	FromBranchID uuid.UUID `gorm:"type:uuid;not null" json:"from_branch_id"`
	FromBranch   *Branch   `gorm:"foreignKey:FromBranchID" json:"from_branch,omitempty"`
	ToBranchID   uuid.UUID `gorm:"type:uuid;not null" json:"to_branch_id"`
	ToBranch     *Branch   `gorm:"foreignKey:ToBranchID" json:"to_branch,omitempty"`

	Status  string `gorm:"type:varchar(20);not null;default:'CREATED';index" json:"status"`
	Version int64  `gorm:"not null;default:0" json:"version"`

	LoadingRecords []LoadingRecord `gorm:"foreignKey:ManifestID" json:"loading_records,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LoadingRecord asserts that a booking is currently loaded on a manifest.
// Its lifetime is kept in lock-step with the booking's IN_TRANSIT/UNLOADED
// phase: created when the booking is loaded, deleted when the booking leaves
// the manifest. At most one active record exists per booking.
type LoadingRecord struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ManifestID uuid.UUID  `gorm:"type:uuid;not null;index" json:"manifest_id"`
	BookingID  uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex" json:"booking_id"`
	Booking    *Booking   `gorm:"foreignKey:BookingID" json:"booking,omitempty"`
	LoadedBy   *uuid.UUID `gorm:"type:uuid" json:"loaded_by"`
	LoadedAt   time.Time  `gorm:"not null" json:"loaded_at"`
}

// Unloading condition enum constants
const (
	ConditionGood    = "GOOD"
	ConditionDamaged = "DAMAGED"
	ConditionMissing = "MISSING"
)

// IsUnloadingCondition reports whether the string is a known per-booking
// unloading condition.
func IsUnloadingCondition(c string) bool {
	switch c {
	case ConditionGood, ConditionDamaged, ConditionMissing:
		return true
	}
	return false
}
