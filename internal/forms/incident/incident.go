// Package incident defines the incident/falls report. The trust variant
// selects the jurisdiction-specific report layout (NHS England, Belfast
// trust, Northern Ireland regional, or a generic template) that the renderer
// applies; the stored fields are the same for every variant.
package incident

import (
	"fmt"
	"time"

	"github.com/carehq/carehq/internal/assessment"
)

var Kind = assessment.Kind{Name: "incident", Title: "Incident Report", IncludeResident: true}

var (
	trustVariants = map[string]bool{
		"nhs": true, "bhsct": true, "hscni": true, "other": true,
	}
	severities = map[string]bool{
		"death":          true,
		"permanent_harm": true,
		"minor_injury":   true,
		"no_harm":        true,
		"near_miss":      true,
	}
)

type Payload struct {
	TrustVariant     string     `json:"trust_variant,omitempty"`
	Severity         string     `json:"severity,omitempty"`
	IncidentDate     *time.Time `json:"incident_date,omitempty"`
	Location         string     `json:"location,omitempty"`
	Description      string     `json:"description,omitempty"`
	IsFall           bool       `json:"is_fall,omitempty"`
	InjurySustained  bool       `json:"injury_sustained,omitempty"`
	InjuryDetails    string     `json:"injury_details,omitempty"`
	Witnesses        []string   `json:"witnesses,omitempty"`
	ActionsTaken     string     `json:"actions_taken,omitempty"`
	ReportedToFamily bool       `json:"reported_to_family,omitempty"`
	GPInformed       bool       `json:"gp_informed,omitempty"`
}

func (p Payload) Validate(strict bool) error {
	if strict {
		if p.TrustVariant == "" {
			return fmt.Errorf("trust_variant is required")
		}
		if p.Severity == "" {
			return fmt.Errorf("severity is required")
		}
		if p.IncidentDate == nil {
			return fmt.Errorf("incident_date is required")
		}
		if p.Description == "" {
			return fmt.Errorf("description is required")
		}
	}
	if p.TrustVariant != "" && !trustVariants[p.TrustVariant] {
		return fmt.Errorf("invalid trust_variant: %s", p.TrustVariant)
	}
	if p.Severity != "" && !severities[p.Severity] {
		return fmt.Errorf("invalid severity: %s", p.Severity)
	}
	if p.InjurySustained && p.InjuryDetails == "" {
		return fmt.Errorf("injury_details is required when injury_sustained is set")
	}
	return nil
}
