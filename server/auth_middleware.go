package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyClaims stores parsed access token claims
	ContextKeyClaims ContextKey = "claims"
)

const (
	detailNoCredentials = "Authentication credentials were not provided."
	detailTokenInvalid  = "Given token not valid for any token type"
	detailTokenExpired  = "Token expired, please log in again"
)

// ClaimsFromContext returns the claims stored by RequireAuth.
func ClaimsFromContext(ctx context.Context) (*AccessClaims, bool) {
	claims, ok := ctx.Value(ContextKeyClaims).(*AccessClaims)
	return claims, ok
}

// RequireAuth is middleware that validates a Bearer access token.
// A token whose login session was revoked is answered with 403 and the
// "Token expired" detail the dashboard treats as a forced logout.
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeDetail(w, http.StatusUnauthorized, detailNoCredentials)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
				writeDetail(w, http.StatusUnauthorized, detailTokenInvalid)
				return
			}

			claims, err := s.tokens.Parse(parts[1])
			if err != nil {
				if errors.Is(err, jwt.ErrTokenExpired) {
					log.Debug().Msg("RequireAuth: access token expired")
				} else {
					log.Debug().Err(err).Msg("RequireAuth: invalid access token")
				}
				writeDetail(w, http.StatusUnauthorized, detailTokenInvalid)
				return
			}

			session, err := s.loginSessions.Get(claims.SessionID)
			if err != nil || session.Revoked {
				writeDetail(w, http.StatusForbidden, detailTokenExpired)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyClaims, claims)
			next(w, r.WithContext(ctx))
		}
	}
}
