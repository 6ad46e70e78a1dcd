package rating

import (
	"errors"
	"testing"

	"github.com/evcraddock/homenest/internal/property"
)

func ratingsOf(vals ...int) []*Rating {
	out := make([]*Rating, len(vals))
	for i, v := range vals {
		out[i] = &Rating{Rating: v}
	}
	return out
}

func TestAverage(t *testing.T) {
	tests := []struct {
		name string
		in   []*Rating
		want float64
	}{
		{"rounds to one decimal", ratingsOf(5, 5, 4), 4.7},
		{"empty", nil, 0},
		{"single", ratingsOf(3), 3},
		{"half rounds up", ratingsOf(4, 5, 5, 5), 4.8},
		{"exact", ratingsOf(1, 2), 1.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Average(tt.in); got != tt.want {
				t.Errorf("Average = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStars(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "☆☆☆☆☆"},
		{3, "★★★☆☆"},
		{5, "★★★★★"},
		{9, "★★★★★"},
		{-2, "☆☆☆☆☆"},
	}
	for _, tt := range tests {
		if got := Stars(tt.in); got != tt.want {
			t.Errorf("Stars(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDraftValidate(t *testing.T) {
	d := Draft{PropertyID: "p1", ReviewerEmail: "r@example.com", Rating: 5}
	if err := d.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, bad := range []int{0, 6} {
		d.Rating = bad
		err := d.Validate()
		var fe property.FieldErrors
		if !errors.As(err, &fe) {
			t.Fatalf("rating %d: expected FieldErrors, got %v", bad, err)
		}
		if _, ok := fe["rating"]; !ok {
			t.Errorf("rating %d: missing rating error in %v", bad, fe)
		}
	}
}

func TestDraftNormalize(t *testing.T) {
	d := Draft{Comment: "  lovely  "}
	d.Normalize()
	if d.Comment != "lovely" {
		t.Errorf("comment = %q", d.Comment)
	}
	if d.PropertyName != "Unknown Property" || d.ReviewerName != "Anonymous" {
		t.Errorf("fallbacks not applied: %+v", d)
	}
}
