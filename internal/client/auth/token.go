// Package auth supplies bearer tokens for the feed API client.
package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iudanet/notifsync/internal/client/api"
	"github.com/iudanet/notifsync/internal/clock"
)

// StaticToken serves a configured bearer token. JWT tokens are checked for
// expiry before use; opaque tokens are passed through unchanged.
type StaticToken struct {
	clock clock.Clock
	token string
}

var _ api.TokenSource = (*StaticToken)(nil)

// NewStaticToken creates a token source for token.
func NewStaticToken(token string, clk clock.Clock) *StaticToken {
	return &StaticToken{
		token: strings.TrimSpace(token),
		clock: clock.OrReal(clk),
	}
}

// Token returns the token or an unauthenticated RemoteError when it is
// missing or already expired, so no request is wasted on it.
func (s *StaticToken) Token(ctx context.Context) (string, error) {
	if s.token == "" {
		return "", &api.RemoteError{Kind: api.KindUnauthenticated, Message: "no API token configured"}
	}

	if exp, ok := ExpiresAt(s.token); ok && !s.clock.Now().Before(exp) {
		return "", &api.RemoteError{
			Kind:    api.KindUnauthenticated,
			Message: fmt.Sprintf("token expired at %s", exp.Format(time.RFC3339)),
		}
	}

	return s.token, nil
}

// ExpiresAt reads the exp claim of a JWT without verifying its signature.
// It returns false for opaque tokens and tokens without exp.
func ExpiresAt(token string) (time.Time, bool) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
