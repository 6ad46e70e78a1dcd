package password

import (
	"errors"
	"strings"
	"testing"
)

func TestValid(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"upper lower six", "Abcdef", true},
		{"no uppercase", "abcdef1", false},
		{"too short no lowercase", "ABC12", false},
		{"empty", "", false},
		{"exactly five", "Abcde", false},
		{"long mixed", "Correct Horse Battery", true},
		{"non-ascii uppercase only", "Ébcdef", false},
		{"non-ascii lowercase only", "ABCDEß", false},
		{"accented letters alongside ascii", "Ünïcodé", false},
		{"ascii letters with accents", "Aünïcodé", true},
		{"astral runes count twice", "Ab😀😀", true},
		{"one astral rune still short", "Abc😀", false},
		{"three bmp runes are short", "Abç", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Valid(tt.in); got != tt.want {
				t.Errorf("Valid(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestCheckReportsEachRule(t *testing.T) {
	r := Check("ABC12")
	if !r.HasUpper {
		t.Error("expected HasUpper")
	}
	if r.HasLower {
		t.Error("expected no lowercase")
	}
	if r.HasMinLength {
		t.Error("expected length failure")
	}

	unmet := r.Unmet()
	if len(unmet) != 2 || unmet[0] != RuleLower || unmet[1] != RuleMinLength {
		t.Errorf("unmet = %v, want [lower min_length]", unmet)
	}
}

func TestValidate(t *testing.T) {
	if err := Validate("Abcdef"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := Validate("abcdef1")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if !strings.Contains(err.Error(), "uppercase") {
		t.Errorf("error = %q, want mention of uppercase", err.Error())
	}
	if strings.Contains(err.Error(), "lowercase") {
		t.Errorf("error = %q, lowercase rule was met", err.Error())
	}
}
