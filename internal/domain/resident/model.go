package resident

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status is a resident's care status.
type Status string

const (
	StatusActive     Status = "active"
	StatusDischarged Status = "discharged"
	StatusDeceased   Status = "deceased"
)

var ErrNotFound = errors.New("resident not found")

// Resident maps to the resident table. Every assessment record hangs off a
// resident; organization and team ids scope the resident within the tenant.
type Resident struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	OrganizationID uuid.UUID  `db:"organization_id" json:"organization_id"`
	TeamID         uuid.UUID  `db:"team_id" json:"team_id"`
	FirstName      string     `db:"first_name" json:"first_name"`
	LastName       string     `db:"last_name" json:"last_name"`
	DateOfBirth    *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	NHSNumber      *string    `db:"nhs_number" json:"nhs_number,omitempty"`
	RoomNumber     *string    `db:"room_number" json:"room_number,omitempty"`
	GPName         *string    `db:"gp_name" json:"gp_name,omitempty"`
	AdmissionDate  *time.Time `db:"admission_date" json:"admission_date,omitempty"`
	Status         Status     `db:"status" json:"status"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}
