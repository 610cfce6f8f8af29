package determin

import (
	"errors"
	"testing"
)

func TestValidateProgramRejectsUnknownOp(t *testing.T) {
	p := mustProgram(t, `{"steps":[{"op":"not_a_real_op"}]}`)
	err := ValidateProgram(p)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T: %v", err, err)
	}
	if !errors.Is(err, ErrUnknownOp) {
		t.Errorf("expected ErrUnknownOp, got %v", err)
	}
	if ve.StepIndex != 0 {
		t.Errorf("StepIndex = %d, want 0", ve.StepIndex)
	}
}

func TestValidateProgramRejectsMissingOp(t *testing.T) {
	p := mustProgram(t, `{"steps":[{"columns":["a"]}]}`)
	err := ValidateProgram(p)
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
}

func TestValidateProgramRejectsMissingRequiredField(t *testing.T) {
	// select requires "columns"
	p := mustProgram(t, `{"steps":[{"op":"select"}]}`)
	err := ValidateProgram(p)
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField for select without columns, got %v", err)
	}
}

func TestValidateProgramAcceptsWellFormedSteps(t *testing.T) {
	p := mustProgram(t, `{"steps":[
		{"op":"select","columns":["a"]},
		{"op":"rename","mapping":{"a":"b"}},
		{"op":"drop_na"},
		{"op":"distinct"}
	]}`)
	if err := ValidateProgram(p); err != nil {
		t.Fatalf("expected valid program, got %v", err)
	}
}

func TestValidateProgramNilProgram(t *testing.T) {
	if err := ValidateProgram(nil); err == nil {
		t.Fatal("expected error for nil program")
	}
}

func TestRequiredFieldsCoverEveryKnownOp(t *testing.T) {
	for op := range knownOps {
		if _, ok := requiredFields[op]; !ok {
			t.Errorf("op %q has no requiredFields entry", op)
		}
		if _, ok := dispatch[op]; !ok {
			t.Errorf("op %q has no dispatch entry", op)
		}
	}
	for op := range dispatch {
		if !knownOps[op] {
			t.Errorf("dispatch has entry %q not present in knownOps", op)
		}
	}
}
