// Package property provides the property listing model shared by the API
// client and the CLI.
package property

import (
	"strings"
	"time"
)

// Category is the listing type.
type Category string

const (
	CategoryRent       Category = "Rent"
	CategorySale       Category = "Sale"
	CategoryCommercial Category = "Commercial"
	CategoryLand       Category = "Land"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryRent, CategorySale, CategoryCommercial, CategoryLand}

// ParseCategory matches s case-insensitively against the known categories.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if strings.EqualFold(string(c), strings.TrimSpace(s)) {
			return c, true
		}
	}
	return "", false
}

// Property is a listing as returned by the API. The server assigns ID and
// CreatedAt.
type Property struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    Category  `json:"category"`
	Price       float64   `json:"price"`
	Location    string    `json:"location"`
	ImageURL    string    `json:"image"`
	OwnerEmail  string    `json:"userEmail"`
	OwnerName   string    `json:"userName"`
	CreatedAt   time.Time `json:"createdAt"`
}

// IsOwnedBy reports whether email belongs to the listing's owner.
// An empty email never owns anything.
func (p *Property) IsOwnedBy(email string) bool {
	if p == nil || email == "" {
		return false
	}
	return strings.EqualFold(p.OwnerEmail, email)
}

// DraftFrom copies the editable fields of p into a Draft for an update.
func DraftFrom(p *Property) Draft {
	return Draft{
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Price:       p.Price,
		Location:    p.Location,
		ImageURL:    p.ImageURL,
		OwnerEmail:  p.OwnerEmail,
		OwnerName:   p.OwnerName,
	}
}
