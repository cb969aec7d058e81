// Package member provides the church member directory and its data access.
package member

import (
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned when a member ID does not exist.
var ErrNotFound = errors.New("member not found")

// Member is a person the church keeps pastoral records for.
type Member struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name" validate:"required,max=100"`
	LastName  string    `json:"last_name" validate:"required,max=100"`
	Email     string    `json:"email,omitempty" validate:"omitempty,email"`
	Phone     string    `json:"phone,omitempty" validate:"max=40"`
	CreatedAt time.Time `json:"created_at"`
}

// FullName returns "First Last".
func (m *Member) FullName() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}
