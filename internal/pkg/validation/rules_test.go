package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
)

type courseInput struct {
	Code  string  `validate:"required,coursecode"`
	Phone *string `validate:"omitempty,phone"`
}

func TestCustomRules(t *testing.T) {
	t.Parallel()

	v := validator.New()
	if err := Register(v); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	phone := func(s string) *string { return &s }
	tests := []struct {
		name  string
		input courseInput
		valid bool
	}{
		{name: "plain code", input: courseInput{Code: "CS101"}, valid: true},
		{name: "lower case with section", input: courseInput{Code: "math201a"}, valid: true},
		{name: "missing number", input: courseInput{Code: "CS"}, valid: false},
		{name: "spaces", input: courseInput{Code: "CS 101"}, valid: false},
		{name: "phone", input: courseInput{Code: "CS101", Phone: phone("+90 555 123-4567")}, valid: true},
		{name: "bad phone", input: courseInput{Code: "CS101", Phone: phone("call me")}, valid: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := v.Struct(tt.input)
			if tt.valid && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.valid && err == nil {
				t.Fatal("expected a validation error")
			}
		})
	}
}
