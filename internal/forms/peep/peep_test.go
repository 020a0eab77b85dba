package peep

import "testing"

func TestValidate(t *testing.T) {
	p := Payload{
		EvacuationMethod:   "evacuation_chair",
		AssistanceRequired: "two_person",
		Steps: []Step{
			{Order: 1, Instruction: "transfer to evacuation chair"},
			{Order: 2, Instruction: "proceed to east stairwell refuge"},
		},
	}
	if err := p.Validate(true); err != nil {
		t.Fatalf("valid payload rejected: %v", err)
	}

	if err := (Payload{}).Validate(true); err == nil {
		t.Error("empty strict payload accepted")
	}
	if err := (Payload{}).Validate(false); err != nil {
		t.Errorf("empty draft rejected: %v", err)
	}

	p.EvacuationMethod = "carried"
	if err := p.Validate(false); err == nil {
		t.Error("unknown evacuation method accepted")
	}
}

func TestValidateSteps(t *testing.T) {
	p := Payload{Steps: []Step{{Order: 1}}}
	if err := p.Validate(false); err == nil {
		t.Error("step without instruction accepted")
	}
}
