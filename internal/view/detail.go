package view

import (
	"context"
	"fmt"

	"github.com/evcraddock/homenest/internal/client"
	"github.com/evcraddock/homenest/internal/property"
	"github.com/evcraddock/homenest/internal/rating"
)

// DetailLoader fetches a listing and its ratings.
type DetailLoader interface {
	GetProperty(ctx context.Context, id string) (*property.Property, error)
	ListRatings(ctx context.Context, f client.RatingFilter) ([]*rating.Rating, error)
}

// DetailPage is one listing with its reviews.
type DetailPage struct {
	Property *property.Property
	Ratings  []*rating.Rating
	Average  float64
}

// LoadDetail fetches listing id and its ratings.
func LoadDetail(ctx context.Context, api DetailLoader, id string) (*DetailPage, error) {
	p, err := api.GetProperty(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading property: %w", err)
	}
	rs, err := api.ListRatings(ctx, client.RatingFilter{PropertyID: id})
	if err != nil {
		return nil, fmt.Errorf("loading ratings: %w", err)
	}
	return &DetailPage{
		Property: p,
		Ratings:  rs,
		Average:  rating.Average(rs),
	}, nil
}

// AddRating records a newly submitted rating at the top of the list.
func (d *DetailPage) AddRating(r *rating.Rating) {
	d.Ratings = append([]*rating.Rating{r}, d.Ratings...)
	d.Average = rating.Average(d.Ratings)
}
