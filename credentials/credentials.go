package credentials

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/storkych/ccj-frontend-sub000/internal/utils"
)

// TokenPair is the persisted access/refresh token pair. Absent tokens are nil
// and are omitted from the JSON encoding.
type TokenPair struct {
	// Access is the short-lived bearer token sent with every request.
	Access *string `json:"access,omitempty"`

	// Refresh is exchanged at the core backend for a new access token.
	Refresh *string `json:"refresh,omitempty"`
}

// NewTokenPair builds a pair, treating empty strings as absent.
func NewTokenPair(access, refresh string) TokenPair {
	return TokenPair{
		Access:  utils.NonZero(access),
		Refresh: utils.NonZero(refresh),
	}
}

// AccessToken returns the access token or "" when absent.
func (p TokenPair) AccessToken() string {
	return utils.Value(p.Access)
}

// RefreshToken returns the refresh token or "" when absent.
func (p TokenPair) RefreshToken() string {
	return utils.Value(p.Refresh)
}

func (p TokenPair) HasAccess() bool {
	return p.AccessToken() != ""
}

func (p TokenPair) HasRefresh() bool {
	return p.RefreshToken() != ""
}

func (p TokenPair) IsEmpty() bool {
	return !p.HasAccess() && !p.HasRefresh()
}

// AccessExpiry reads the exp claim of the access token without verifying the
// signature. The second value is false when there is no token, the token is
// not a JWT, or it carries no expiry.
func (p TokenPair) AccessExpiry() (time.Time, bool) {
	if !p.HasAccess() {
		return time.Time{}, false
	}
	token, _, err := jwt.NewParser().ParseUnverified(p.AccessToken(), jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// SessionUser describes the authenticated principal. The access layer only
// stores it; the UI reads it.
type SessionUser struct {
	ID    string `json:"id"`
	Role  string `json:"role,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}
