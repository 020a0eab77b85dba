// Package photoconsent defines the photography consent form.
package photoconsent

import (
	"fmt"
	"time"

	"github.com/carehq/carehq/internal/assessment"
)

var Kind = assessment.Kind{Name: "photoconsent", Title: "Photography Consent", IncludeResident: true}

var signatories = map[string]bool{
	"resident": true, "family_member": true, "power_of_attorney": true,
}

type Payload struct {
	ConsentGiven       bool       `json:"consent_given,omitempty"`
	CarePlanUse        bool       `json:"care_plan_use,omitempty"`
	NewsletterUse      bool       `json:"newsletter_use,omitempty"`
	SocialMediaUse     bool       `json:"social_media_use,omitempty"`
	SignedBy           string     `json:"signed_by,omitempty"`
	SignedByCapacity   string     `json:"signed_by_capacity,omitempty"`
	ConsentDate        *time.Time `json:"consent_date,omitempty"`
	ReviewDate         *time.Time `json:"review_date,omitempty"`
	AdditionalComments string     `json:"additional_comments,omitempty"`
}

func (p Payload) Validate(strict bool) error {
	if strict {
		if p.SignedBy == "" {
			return fmt.Errorf("signed_by is required")
		}
		if p.SignedByCapacity == "" {
			return fmt.Errorf("signed_by_capacity is required")
		}
		if p.ConsentDate == nil {
			return fmt.Errorf("consent_date is required")
		}
	}
	if p.SignedByCapacity != "" && !signatories[p.SignedByCapacity] {
		return fmt.Errorf("invalid signed_by_capacity: %s", p.SignedByCapacity)
	}
	// Specific uses imply overall consent.
	if !p.ConsentGiven && (p.CarePlanUse || p.NewsletterUse || p.SocialMediaUse) {
		return fmt.Errorf("specific uses require consent_given")
	}
	return nil
}
