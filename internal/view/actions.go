package view

import (
	"strings"

	"github.com/evcraddock/homenest/internal/property"
	"github.com/evcraddock/homenest/internal/rating"
	"github.com/evcraddock/homenest/internal/session"
)

// Action is a control that can be offered on a listing.
type Action string

const (
	ActionView   Action = "view"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// ActionsFor returns the controls viewer may use on p. Anyone can view;
// only the owner can edit or delete. A nil viewer is anonymous.
func ActionsFor(p *property.Property, viewer *session.Identity) []Action {
	actions := []Action{ActionView}
	if viewer != nil && p.IsOwnedBy(viewer.Email) {
		actions = append(actions, ActionEdit, ActionDelete)
	}
	return actions
}

// Allowed reports whether a is among actions.
func Allowed(actions []Action, a Action) bool {
	for _, x := range actions {
		if x == a {
			return true
		}
	}
	return false
}

// CanDeleteRating reports whether viewer wrote r.
func CanDeleteRating(r *rating.Rating, viewer *session.Identity) bool {
	if r == nil || viewer == nil || viewer.Email == "" {
		return false
	}
	return strings.EqualFold(r.ReviewerEmail, viewer.Email)
}
