package skinintegrity

import "testing"

func TestValidate(t *testing.T) {
	p := Payload{
		RiskLevel: "high",
		RiskScore: 17,
		Sites:     []Site{{Location: "left heel", Grade: 2}},
	}
	if err := p.Validate(true); err != nil {
		t.Fatalf("valid payload rejected: %v", err)
	}

	if err := (Payload{}).Validate(true); err == nil {
		t.Error("missing risk_level accepted")
	}
	if err := (Payload{}).Validate(false); err != nil {
		t.Errorf("empty draft rejected: %v", err)
	}

	p.RiskLevel = "severe"
	if err := p.Validate(false); err == nil {
		t.Error("unknown risk level accepted")
	}
}

func TestValidateSites(t *testing.T) {
	p := Payload{RiskLevel: "low", Sites: []Site{{Grade: 1}}}
	if err := p.Validate(false); err == nil {
		t.Error("site without location accepted")
	}

	p = Payload{RiskLevel: "low", Sites: []Site{{Location: "sacrum", Grade: 5}}}
	if err := p.Validate(false); err == nil {
		t.Error("grade 5 accepted")
	}

	p = Payload{RiskLevel: "low", Sites: []Site{{Location: "sacrum", Grade: -1}}}
	if err := p.Validate(false); err == nil {
		t.Error("negative grade accepted")
	}

	// Grade 0 is an observed but ungraded site.
	p = Payload{RiskLevel: "low", Sites: []Site{{Location: "sacrum"}}}
	if err := p.Validate(true); err != nil {
		t.Errorf("ungraded site rejected: %v", err)
	}
}
