package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role classifies an account's position in the platform.
type Role string

const (
	RoleAdmin       Role = "ADMIN"
	RoleOrganizer   Role = "ORGANIZER"
	RoleBeneficiary Role = "BENEFICIARY"
	RoleDonor       Role = "DONOR"
	RoleMerchant    Role = "MERCHANT"
)

// ValidRole reports whether r is a known role.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleOrganizer, RoleBeneficiary, RoleDonor, RoleMerchant:
		return true
	}
	return false
}

// Account is a platform identity. Every account owns exactly one ledger
// account keyed by its ID.
type Account struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"display_name"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}
