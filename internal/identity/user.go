package identity

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User is the provider-side account handle for a signed-in user.
type User struct {
	UID          string
	Email        string
	DisplayName  string
	PhotoURL     string
	ProviderID   string // "password" or a federated provider such as "google.com"
	IDToken      string
	RefreshToken string
	ExpiresAt    time.Time
}

// Expired reports whether the ID token has passed its expiry at now.
func (u *User) Expired(now time.Time) bool {
	return u.ExpiresAt.IsZero() || !now.Before(u.ExpiresAt)
}

// tokenClaims are the Firebase ID token claims the client reads.
type tokenClaims struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	UserID  string `json:"user_id"`
	Firebase struct {
		SignInProvider string `json:"sign_in_provider"`
	} `json:"firebase"`
	jwt.RegisteredClaims
}

// parseIDToken reads claims from an ID token without verifying its
// signature. The API server verifies tokens; the client only needs the
// profile fields and expiry.
func parseIDToken(raw string) (*tokenClaims, error) {
	var claims tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return nil, err
	}
	return &claims, nil
}

// applyClaims fills any empty profile fields of u from the token claims.
func (u *User) applyClaims(c *tokenClaims) {
	if u.UID == "" {
		u.UID = c.UserID
		if u.UID == "" {
			u.UID = c.Subject
		}
	}
	if u.Email == "" {
		u.Email = c.Email
	}
	if u.DisplayName == "" {
		u.DisplayName = c.Name
	}
	if u.PhotoURL == "" {
		u.PhotoURL = c.Picture
	}
	if u.ProviderID == "" {
		u.ProviderID = c.Firebase.SignInProvider
	}
	if c.ExpiresAt != nil {
		u.ExpiresAt = c.ExpiresAt.Time
	}
}
