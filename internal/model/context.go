package model

import "github.com/google/uuid"

// Role constants carried in the access token.
const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleOperator = "operator"
)

// RequestContext is the immutable tenancy/identity value resolved once per
// request by the auth middleware and passed explicitly to every service call.
// Core code never reads tenant or actor identity from anywhere else.
type RequestContext struct {
	OrganizationID uuid.UUID
	BranchID       uuid.UUID
	Role           string
	UserID         uuid.UUID
}

// Actor returns the user ID as a nullable pointer for audit columns.
func (rc RequestContext) Actor() *uuid.UUID {
	if rc.UserID == uuid.Nil {
		return nil
	}
	id := rc.UserID
	return &id
}
