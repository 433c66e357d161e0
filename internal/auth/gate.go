// ABOUTME: Transport-independent authentication decision
// ABOUTME: Turns a presented token into an AuthContext or ErrUnauthenticated

package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/2389/journal-gateway/internal/store"
)

// ErrUnauthenticated is returned when a request carries no usable token.
var ErrUnauthenticated = errors.New("unauthenticated")

// TokenResolver maps a presented session token to its principal.
type TokenResolver interface {
	ResolveByToken(ctx context.Context, token string) (*store.User, error)
}

// Authenticate resolves token to an AuthContext. Any resolver failure is
// reported as ErrUnauthenticated wrapping the cause.
func Authenticate(ctx context.Context, resolver TokenResolver, token string) (*AuthContext, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: missing token", ErrUnauthenticated)
	}

	user, err := resolver.ResolveByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	if user == nil {
		return nil, ErrUnauthenticated
	}

	return &AuthContext{Principal: user, Token: token}, nil
}
