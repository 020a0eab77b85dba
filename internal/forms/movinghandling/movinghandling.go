// Package movinghandling defines the moving & handling assessment.
package movinghandling

import (
	"fmt"

	"github.com/carehq/carehq/internal/assessment"
)

var Kind = assessment.Kind{Name: "movinghandling", Title: "Moving and Handling Assessment"}

var (
	dependencyLevels = map[string]bool{"A": true, "B": true, "C": true, "D": true}
	transferMethods  = map[string]bool{
		"independent": true, "one_carer": true, "two_carers": true, "hoist": true,
	}
	weightBearing = map[string]bool{"full": true, "partial": true, "none": true}
)

type Payload struct {
	DependencyLevel string   `json:"dependency_level,omitempty"`
	TransferMethod  string   `json:"transfer_method,omitempty"`
	WeightBearing   string   `json:"weight_bearing,omitempty"`
	Equipment       []string `json:"equipment,omitempty"`
	Constraints     string   `json:"constraints,omitempty"`
	NightTimeNotes  string   `json:"night_time_notes,omitempty"`
}

func (p Payload) Validate(strict bool) error {
	if strict {
		if p.DependencyLevel == "" {
			return fmt.Errorf("dependency_level is required")
		}
		if p.TransferMethod == "" {
			return fmt.Errorf("transfer_method is required")
		}
	}
	if p.DependencyLevel != "" && !dependencyLevels[p.DependencyLevel] {
		return fmt.Errorf("invalid dependency_level: %s", p.DependencyLevel)
	}
	if p.TransferMethod != "" && !transferMethods[p.TransferMethod] {
		return fmt.Errorf("invalid transfer_method: %s", p.TransferMethod)
	}
	if p.WeightBearing != "" && !weightBearing[p.WeightBearing] {
		return fmt.Errorf("invalid weight_bearing: %s", p.WeightBearing)
	}
	return nil
}
