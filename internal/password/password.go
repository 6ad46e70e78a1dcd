// Package password implements the account password policy checked before
// registration.
package password

import (
	"strings"
	"unicode/utf16"
)

// MinLength is the minimum accepted password length, counted in UTF-16
// code units so a character outside the Basic Multilingual Plane counts
// twice.
const MinLength = 6

// Rule identifies a single password requirement.
type Rule string

const (
	RuleUpper     Rule = "upper"
	RuleLower     Rule = "lower"
	RuleMinLength Rule = "min_length"
)

// Label returns the user-facing description of the rule.
func (r Rule) Label() string {
	switch r {
	case RuleUpper:
		return "At least one uppercase letter"
	case RuleLower:
		return "At least one lowercase letter"
	case RuleMinLength:
		return "Minimum 6 characters"
	}
	return string(r)
}

// Rules lists every requirement in display order.
var Rules = []Rule{RuleUpper, RuleLower, RuleMinLength}

// Report holds the outcome of each predicate independently.
type Report struct {
	HasUpper     bool `json:"has_upper"`
	HasLower     bool `json:"has_lower"`
	HasMinLength bool `json:"has_min_length"`
}

// Check evaluates every rule against p. Only ASCII letters satisfy the
// uppercase and lowercase rules.
func Check(p string) Report {
	var r Report
	n := 0
	for _, c := range p {
		switch {
		case 'A' <= c && c <= 'Z':
			r.HasUpper = true
		case 'a' <= c && c <= 'z':
			r.HasLower = true
		}
		n += utf16.RuneLen(c)
	}
	r.HasMinLength = n >= MinLength
	return r
}

// Valid reports whether all rules passed.
func (r Report) Valid() bool {
	return r.HasUpper && r.HasLower && r.HasMinLength
}

// Met reports whether a single rule passed.
func (r Report) Met(rule Rule) bool {
	switch rule {
	case RuleUpper:
		return r.HasUpper
	case RuleLower:
		return r.HasLower
	case RuleMinLength:
		return r.HasMinLength
	}
	return false
}

// Unmet returns the failed rules in display order.
func (r Report) Unmet() []Rule {
	var out []Rule
	for _, rule := range Rules {
		if !r.Met(rule) {
			out = append(out, rule)
		}
	}
	return out
}

// Valid reports whether p satisfies the policy.
func Valid(p string) bool {
	return Check(p).Valid()
}

// ValidationError is returned when a password fails the policy.
// It is detected locally and never sent to the server.
type ValidationError struct {
	Report Report
}

func (e *ValidationError) Error() string {
	unmet := e.Report.Unmet()
	labels := make([]string, len(unmet))
	for i, r := range unmet {
		labels[i] = strings.ToLower(r.Label())
	}
	return "invalid password: " + strings.Join(labels, "; ")
}

// Validate returns a *ValidationError naming every unmet rule, or nil.
func Validate(p string) error {
	r := Check(p)
	if r.Valid() {
		return nil
	}
	return &ValidationError{Report: r}
}
