// Package rating provides the star rating model and summary helpers.
package rating

import (
	"math"
	"strings"
	"time"

	"github.com/evcraddock/homenest/internal/property"
)

// MaxStars is the top of the rating scale.
const MaxStars = 5

// Rating is a review left on a property. Ratings are never updated, only
// deleted.
type Rating struct {
	ID            string    `json:"_id"`
	PropertyID    string    `json:"propertyId"`
	PropertyName  string    `json:"propertyName"`
	ReviewerEmail string    `json:"reviewerEmail"`
	ReviewerName  string    `json:"reviewerName"`
	Rating        int       `json:"rating"`
	Comment       string    `json:"comment"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Draft is the request body for creating a rating.
type Draft struct {
	PropertyID    string `json:"propertyId" validate:"required"`
	PropertyName  string `json:"propertyName"`
	ReviewerEmail string `json:"reviewerEmail" validate:"required,email"`
	ReviewerName  string `json:"reviewerName"`
	Rating        int    `json:"rating" validate:"min=1,max=5"`
	Comment       string `json:"comment"`
}

// Validate checks the draft before submission.
func (d *Draft) Validate() error {
	return property.ValidateStruct(d)
}

// Normalize fills the denormalized display fallbacks.
func (d *Draft) Normalize() {
	d.Comment = strings.TrimSpace(d.Comment)
	if strings.TrimSpace(d.PropertyName) == "" {
		d.PropertyName = "Unknown Property"
	}
	if strings.TrimSpace(d.ReviewerName) == "" {
		d.ReviewerName = "Anonymous"
	}
}

// Average returns the mean rating rounded to one decimal place.
// An empty list averages to 0.
func Average(ratings []*Rating) float64 {
	if len(ratings) == 0 {
		return 0
	}
	var sum int
	for _, r := range ratings {
		sum += r.Rating
	}
	mean := float64(sum) / float64(len(ratings))
	return math.Round(mean*10) / 10
}

// Stars renders n filled stars out of MaxStars.
func Stars(n int) string {
	if n < 0 {
		n = 0
	}
	if n > MaxStars {
		n = MaxStars
	}
	return strings.Repeat("★", n) + strings.Repeat("☆", MaxStars-n)
}
