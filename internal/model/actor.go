package model

import "github.com/google/uuid"

// Actor is the already-authenticated caller recorded on every log entry
type Actor struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	RoleCode string    `json:"role_code"`
}

func (a Actor) IsAdmin() bool {
	return a.RoleCode == RoleAdmin
}

// AuditName is what lands in the CreatedBy/UpdatedBy columns
func (a Actor) AuditName() string {
	return a.ID.String()
}

// SystemActor is used by maintenance commands
func SystemActor() Actor {
	return Actor{ID: uuid.Nil, Name: "system", RoleCode: RoleAdmin}
}
