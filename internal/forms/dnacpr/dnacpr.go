// Package dnacpr defines the DNACPR (do not attempt cardiopulmonary
// resuscitation) decision form.
package dnacpr

import (
	"fmt"
	"time"

	"github.com/carehq/carehq/internal/assessment"
)

var Kind = assessment.Kind{Name: "dnacpr", Title: "DNACPR Decision", IncludeResident: true}

var decisions = map[string]bool{
	"attempt_cpr":        true,
	"do_not_attempt_cpr": true,
}

type Payload struct {
	Decision              string     `json:"decision,omitempty"`
	DecisionDate          *time.Time `json:"decision_date,omitempty"`
	ClinicianName         string     `json:"clinician_name,omitempty"`
	ClinicianRole         string     `json:"clinician_role,omitempty"`
	Rationale             string     `json:"rationale,omitempty"`
	DiscussedWithResident bool       `json:"discussed_with_resident,omitempty"`
	DiscussedWithFamily   bool       `json:"discussed_with_family,omitempty"`
	ReviewDate            *time.Time `json:"review_date,omitempty"`
}

func (p Payload) Validate(strict bool) error {
	if strict {
		if p.Decision == "" {
			return fmt.Errorf("decision is required")
		}
		if p.DecisionDate == nil {
			return fmt.Errorf("decision_date is required")
		}
		if p.ClinicianName == "" {
			return fmt.Errorf("clinician_name is required")
		}
	}
	if p.Decision != "" && !decisions[p.Decision] {
		return fmt.Errorf("invalid decision: %s", p.Decision)
	}
	if p.ReviewDate != nil && p.DecisionDate != nil && p.ReviewDate.Before(*p.DecisionDate) {
		return fmt.Errorf("review_date cannot precede decision_date")
	}
	return nil
}
