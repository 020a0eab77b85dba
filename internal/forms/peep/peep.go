// Package peep defines the personal emergency evacuation plan (PEEP).
package peep

import (
	"fmt"

	"github.com/carehq/carehq/internal/assessment"
)

var Kind = assessment.Kind{Name: "peep", Title: "Personal Emergency Evacuation Plan", IncludeResident: true}

var (
	evacuationMethods = map[string]bool{
		"walks_unaided": true, "walks_with_aid": true, "wheelchair": true,
		"evacuation_chair": true, "ski_sheet": true,
	}
	assistanceLevels = map[string]bool{"none": true, "one_person": true, "two_person": true}
)

// Step is one ordered instruction in the evacuation sequence.
type Step struct {
	Order       int    `json:"order"`
	Instruction string `json:"instruction"`
}

type Payload struct {
	EvacuationMethod   string   `json:"evacuation_method,omitempty"`
	AssistanceRequired string   `json:"assistance_required,omitempty"`
	Steps              []Step   `json:"steps,omitempty"`
	EquipmentNeeded    []string `json:"equipment_needed,omitempty"`
	RefugeLocation     string   `json:"refuge_location,omitempty"`
	NightTimeVariation string   `json:"night_time_variation,omitempty"`
}

func (p Payload) Validate(strict bool) error {
	if strict {
		if p.EvacuationMethod == "" {
			return fmt.Errorf("evacuation_method is required")
		}
		if p.AssistanceRequired == "" {
			return fmt.Errorf("assistance_required is required")
		}
	}
	if p.EvacuationMethod != "" && !evacuationMethods[p.EvacuationMethod] {
		return fmt.Errorf("invalid evacuation_method: %s", p.EvacuationMethod)
	}
	if p.AssistanceRequired != "" && !assistanceLevels[p.AssistanceRequired] {
		return fmt.Errorf("invalid assistance_required: %s", p.AssistanceRequired)
	}
	for i, step := range p.Steps {
		if step.Instruction == "" {
			return fmt.Errorf("steps[%d]: instruction is required", i)
		}
	}
	return nil
}
