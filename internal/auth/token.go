// ABOUTME: JWT session token issuance and verification
// ABOUTME: Uses HS256 signing with a single process-wide secret

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MinSecretLength is the minimum accepted length of the signing secret in bytes.
const MinSecretLength = 32

// PurposeAuth is the access tag carried by session tokens.
const PurposeAuth = "auth"

// Token errors
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrMissingClaim = errors.New("missing required claim")
	ErrWeakSecret   = fmt.Errorf("secret must be at least %d bytes", MinSecretLength)
)

// TokenClaims is the verified payload of a session token.
type TokenClaims struct {
	PrincipalID string
	Purpose     string
	ID          string // unique per issued token
	IssuedAt    time.Time
}

// TokenCodec issues and verifies HS256 signed tokens.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenCodec creates a codec with the given secret. A ttl of zero issues
// tokens without an exp claim; they stay valid until revoked.
func NewTokenCodec(secret []byte, ttl time.Duration) (*TokenCodec, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	if ttl < 0 {
		return nil, fmt.Errorf("token ttl must not be negative: %s", ttl)
	}
	return &TokenCodec{secret: secret, ttl: ttl, now: time.Now}, nil
}

// Issue signs a token binding principalID to purpose.
func (c *TokenCodec) Issue(principalID, purpose string) (string, error) {
	if principalID == "" || purpose == "" {
		return "", fmt.Errorf("%w: principal and purpose are required", ErrMissingClaim)
	}

	now := c.now()
	claims := jwt.MapClaims{
		"sub":    principalID,
		"access": purpose,
		"jti":    uuid.New().String(),
		"iat":    now.Unix(),
	}
	if c.ttl > 0 {
		claims["exp"] = now.Add(c.ttl).Unix()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and structure of tokenString and returns its
// claims. Every failure wraps ErrInvalidToken.
func (c *TokenCodec) Verify(tokenString string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method is HS256
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now))

	if err != nil {
		// Check if it's specifically an expiration error
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidToken, ErrExpiredToken)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, fmt.Errorf("%w: %w: sub", ErrInvalidToken, ErrMissingClaim)
	}

	access, ok := claims["access"].(string)
	if !ok || access == "" {
		return nil, fmt.Errorf("%w: %w: access", ErrInvalidToken, ErrMissingClaim)
	}

	result := &TokenClaims{PrincipalID: sub, Purpose: access}
	if jti, ok := claims["jti"].(string); ok {
		result.ID = jti
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		result.IssuedAt = iat.Time
	}

	return result, nil
}
