package credentials

import (
	"context"

	"github.com/storkych/ccj-frontend-sub000/internal/errors"
	"golang.org/x/oauth2"
)

var _ oauth2.TokenSource = (*tokenSource)(nil)

type tokenSource struct {
	ctx   context.Context
	store *Store
}

// TokenSource exposes the current access token as an oauth2.TokenSource so
// the session can be handed to oauth2-aware HTTP clients. It never refreshes
// on its own; refreshing stays with the backend clients.
func (s *Store) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &tokenSource{ctx: ctx, store: s}
}

func (ts *tokenSource) Token() (*oauth2.Token, error) {
	pair := ts.store.Load(ts.ctx)
	if !pair.HasAccess() {
		return nil, errors.ErrNotLoggedIn
	}

	t := &oauth2.Token{
		AccessToken:  pair.AccessToken(),
		TokenType:    "Bearer",
		RefreshToken: pair.RefreshToken(),
	}
	if exp, ok := pair.AccessExpiry(); ok {
		t.Expiry = exp
	}
	return t, nil
}
