// Package infectionprevention defines the infection prevention and control
// assessment.
package infectionprevention

import (
	"fmt"
	"time"

	"github.com/carehq/carehq/internal/assessment"
)

var Kind = assessment.Kind{Name: "infectionprevention", Title: "Infection Prevention Assessment"}

var (
	precautionLevels = map[string]bool{
		"standard": true, "contact": true, "droplet": true, "airborne": true,
	}
	screeningResults = map[string]bool{"positive": true, "negative": true, "unknown": true}
)

type Payload struct {
	Precautions       string     `json:"precautions,omitempty"`
	HasInfection      bool       `json:"has_infection,omitempty"`
	InfectionType     string     `json:"infection_type,omitempty"`
	IsolationRequired bool       `json:"isolation_required,omitempty"`
	MRSAStatus        string     `json:"mrsa_status,omitempty"`
	LastScreeningDate *time.Time `json:"last_screening_date,omitempty"`
	Notes             string     `json:"notes,omitempty"`
}

func (p Payload) Validate(strict bool) error {
	if strict && p.Precautions == "" {
		return fmt.Errorf("precautions is required")
	}
	if p.Precautions != "" && !precautionLevels[p.Precautions] {
		return fmt.Errorf("invalid precautions: %s", p.Precautions)
	}
	if p.MRSAStatus != "" && !screeningResults[p.MRSAStatus] {
		return fmt.Errorf("invalid mrsa_status: %s", p.MRSAStatus)
	}
	if p.HasInfection && p.InfectionType == "" {
		return fmt.Errorf("infection_type is required when has_infection is set")
	}
	return nil
}
