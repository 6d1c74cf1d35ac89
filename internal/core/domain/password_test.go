package domain

import "testing"

const goodPassword = "Xk9!mQp2Wz7&"

func TestValidatePassword_AllRulesPass(t *testing.T) {
	result := ValidatePassword(goodPassword)
	if !result.Valid {
		t.Fatalf("expected valid, got errors: %v", result.Errors)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("expected no errors, got %v", result.Errors)
	}
}

func TestValidatePassword_SingleRuleViolations(t *testing.T) {
	cases := []struct {
		name     string
		password string
	}{
		{"too short", "Xk9!mQp2W"},
		{"no uppercase", "xk9!mqp2wz7&"},
		{"no lowercase", "XK9!MQP2WZ7&"},
		{"no digit", "Xk!?mQpzWzr&"},
		{"no special", "Xk9dmQp2Wz7b"},
		{"repeated run", "Xk9!mQp2Wzzz"},
		{"common pattern", "Xk9!mQp2Wabc"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := ValidatePassword(tc.password)
			if result.Valid {
				t.Fatalf("expected invalid")
			}
			if len(result.Errors) != 1 {
				t.Fatalf("expected exactly one error, got %v", result.Errors)
			}
		})
	}
}

func TestValidatePassword_Deterministic(t *testing.T) {
	first := ValidatePassword("short")
	second := ValidatePassword("short")
	if len(first.Errors) != len(second.Errors) {
		t.Fatalf("same input produced different error counts")
	}
	for i := range first.Errors {
		if first.Errors[i] != second.Errors[i] {
			t.Fatalf("same input produced different errors")
		}
	}
}

func TestValidatePassword_BlocklistCaseInsensitive(t *testing.T) {
	result := ValidatePassword("Xk9!mQp2WPaSsWoRd")
	if result.Valid {
		t.Fatalf("expected blocklisted substring to be caught regardless of case")
	}
}
