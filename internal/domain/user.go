package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

// Define constants for roles
const (
	RoleAdmin      Role = "admin"
	RoleSupervisor Role = "pml" // Verifies submissions of the officers below them
	RoleOfficer    Role = "ppl" // Collects ubinan samples in the field
	RoleViewer     Role = "viewer"
)

// Roles lists every role known to the system.
var Roles = []Role{RoleAdmin, RoleSupervisor, RoleOfficer, RoleViewer}

// Valid reports whether r is one of the closed set of roles.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// User represents an account in the system (admin, supervisor, officer or viewer).
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`    // Should be unique
	PasswordHash string             `bson:"passwordHash" json:"-"` // Never expose this via JSON
	Role         Role               `bson:"role" json:"role"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`

	// --- Officer-specific ---
	// The supervisor (PML) this officer reports to, if linked yet.
	SupervisorID *primitive.ObjectID `bson:"supervisorId,omitempty" json:"supervisorId,omitempty"`
}

func (u *User) IsOfficer() bool {
	return u.Role == RoleOfficer
}

func (u *User) IsSupervisor() bool {
	return u.Role == RoleSupervisor
}
