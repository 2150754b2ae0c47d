package refreshtokens

import "time"

// StoredRefreshToken is the server-side record behind an opaque refresh
// token handed to a client.
type StoredRefreshToken struct {
	Token     string    // The random token string sent to the client
	UserID    string    // Owner
	SessionID string    // Login session the token belongs to
	Iat       time.Time // Issued at time
}

// Repo stores refresh token metadata keyed by the token string.
type Repo interface {
	Upsert(refreshToken *StoredRefreshToken) error
	Delete(token string) error
	Get(token string) (*StoredRefreshToken, error)
}
