// Package admission defines the admission assessment payload: the intake
// form completed when a resident moves into the home.
package admission

import (
	"fmt"
	"time"

	"github.com/carehq/carehq/internal/assessment"
)

var Kind = assessment.Kind{Name: "admission", Title: "Admission Assessment", IncludeResident: true}

var dependencyLevels = map[string]bool{"A": true, "B": true, "C": true, "D": true}

type NextOfKin struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship,omitempty"`
	Phone        string `json:"phone,omitempty"`
}

type Payload struct {
	AdmissionDate      *time.Time  `json:"admission_date,omitempty"`
	BedroomNumber      string      `json:"bedroom_number,omitempty"`
	DependencyLevel    string      `json:"dependency_level,omitempty"`
	MobilityNotes      string      `json:"mobility_notes,omitempty"`
	DietaryNotes       string      `json:"dietary_notes,omitempty"`
	MedicalHistory     string      `json:"medical_history,omitempty"`
	Allergies          []string    `json:"allergies,omitempty"`
	NextOfKin          []NextOfKin `json:"next_of_kin,omitempty"`
	WeightKg           float64     `json:"weight_kg,omitempty"`
	RequiresAssistance bool        `json:"requires_assistance,omitempty"`
}

func (p Payload) Validate(strict bool) error {
	if strict {
		if p.AdmissionDate == nil {
			return fmt.Errorf("admission_date is required")
		}
		if p.BedroomNumber == "" {
			return fmt.Errorf("bedroom_number is required")
		}
		if p.DependencyLevel == "" {
			return fmt.Errorf("dependency_level is required")
		}
	}
	if p.DependencyLevel != "" && !dependencyLevels[p.DependencyLevel] {
		return fmt.Errorf("invalid dependency_level: %s", p.DependencyLevel)
	}
	if p.WeightKg < 0 {
		return fmt.Errorf("weight_kg cannot be negative")
	}
	for i, nok := range p.NextOfKin {
		if nok.Name == "" {
			return fmt.Errorf("next_of_kin[%d]: name is required", i)
		}
	}
	return nil
}
