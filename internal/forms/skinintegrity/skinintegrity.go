// Package skinintegrity defines the skin integrity / pressure damage risk
// assessment.
package skinintegrity

import (
	"fmt"

	"github.com/carehq/carehq/internal/assessment"
)

var Kind = assessment.Kind{Name: "skinintegrity", Title: "Skin Integrity Assessment"}

var riskLevels = map[string]bool{
	"low": true, "medium": true, "high": true, "very_high": true,
}

// Site records one area of observed or at-risk skin damage. Grade follows
// the EPUAP pressure ulcer categories 1-4; 0 means the site has not been
// graded yet.
type Site struct {
	Location    string `json:"location"`
	Grade       int    `json:"grade,omitempty"`
	Description string `json:"description,omitempty"`
}

type Payload struct {
	RiskLevel              string   `json:"risk_level,omitempty"`
	RiskScore              int      `json:"risk_score,omitempty"`
	Sites                  []Site   `json:"sites,omitempty"`
	EquipmentInUse         []string `json:"equipment_in_use,omitempty"`
	RepositioningFrequency string   `json:"repositioning_frequency,omitempty"`
	Notes                  string   `json:"notes,omitempty"`
}

func (p Payload) Validate(strict bool) error {
	if strict && p.RiskLevel == "" {
		return fmt.Errorf("risk_level is required")
	}
	if p.RiskLevel != "" && !riskLevels[p.RiskLevel] {
		return fmt.Errorf("invalid risk_level: %s", p.RiskLevel)
	}
	if p.RiskScore < 0 {
		return fmt.Errorf("risk_score cannot be negative")
	}
	for i, site := range p.Sites {
		if site.Location == "" {
			return fmt.Errorf("sites[%d]: location is required", i)
		}
		if site.Grade < 0 || site.Grade > 4 {
			return fmt.Errorf("sites[%d]: grade must be 1-4, or 0 when ungraded", i)
		}
	}
	return nil
}
