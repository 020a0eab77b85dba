package incident

import (
	"testing"
	"time"
)

func validPayload() Payload {
	now := time.Now()
	return Payload{
		TrustVariant: "bhsct",
		Severity:     "no_harm",
		IncidentDate: &now,
		Location:     "day room",
		Description:  "unwitnessed fall from chair",
		IsFall:       true,
	}
}

func TestValidateStrict(t *testing.T) {
	if err := validPayload().Validate(true); err != nil {
		t.Fatalf("valid payload rejected: %v", err)
	}

	required := []func(*Payload){
		func(p *Payload) { p.TrustVariant = "" },
		func(p *Payload) { p.Severity = "" },
		func(p *Payload) { p.IncidentDate = nil },
		func(p *Payload) { p.Description = "" },
	}
	for i, clear := range required {
		p := validPayload()
		clear(&p)
		if err := p.Validate(true); err == nil {
			t.Errorf("case %d: missing required field accepted", i)
		}
		if err := p.Validate(false); err != nil {
			t.Errorf("case %d: draft rejected: %v", i, err)
		}
	}
}

func TestValidateEnums(t *testing.T) {
	p := validPayload()
	p.Severity = "fatal"
	if err := p.Validate(false); err == nil {
		t.Error("unknown severity accepted")
	}

	p = validPayload()
	p.TrustVariant = "NHS" // exact-match, no case folding
	if err := p.Validate(false); err == nil {
		t.Error("uppercase trust variant accepted")
	}
}

func TestInjuryDetailsRequired(t *testing.T) {
	p := validPayload()
	p.InjurySustained = true
	if err := p.Validate(false); err == nil {
		t.Error("injury without details accepted")
	}
	p.InjuryDetails = "bruising to left forearm"
	if err := p.Validate(true); err != nil {
		t.Errorf("complete injury report rejected: %v", err)
	}
}
