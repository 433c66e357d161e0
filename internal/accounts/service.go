// ABOUTME: Account lifecycle: registration, credential checks and session token list management
// ABOUTME: ResolveByToken requires both a valid signature and membership in the user's token list

package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/2389/journal-gateway/internal/auth"
	"github.com/2389/journal-gateway/internal/store"
)

// Account errors
var (
	ErrValidationFailed = errors.New("validation failed")
	ErrDuplicateEmail   = errors.New("email already registered")
	// ErrNotFound covers both an unknown email and a wrong password.
	ErrNotFound     = errors.New("invalid email or password")
	ErrInvalidToken = errors.New("invalid session token")
)

const (
	// MinPasswordLength is the shortest accepted password, in characters.
	MinPasswordLength = 6
	// maxPasswordBytes is the longest input bcrypt will hash.
	maxPasswordBytes = 72
)

// fallbackDummyHash is used only if the hasher cannot produce its own.
const fallbackDummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

var validate = validator.New(validator.WithRequiredStructEnabled())

// Service manages users and their session tokens.
type Service struct {
	users  store.UserStore
	hasher auth.PasswordHasher
	codec  *auth.TokenCodec
	logger *slog.Logger

	// dummyHash is compared against when the email is unknown. It comes from
	// the configured hasher so a miss costs the same as a wrong password.
	dummyHash string
}

// Ensure Service can back the HTTP auth middleware.
var _ auth.TokenResolver = (*Service)(nil)

// NewService creates an account service.
func NewService(users store.UserStore, hasher auth.PasswordHasher, codec *auth.TokenCodec, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "accounts")

	dummy, err := hasher.Hash("journal-gateway-dummy-password")
	if err != nil {
		logger.Warn("failed to compute dummy hash, using fallback", "error", err)
		dummy = fallbackDummyHash
	}

	return &Service{
		users:     users,
		hasher:    hasher,
		codec:     codec,
		logger:    logger,
		dummyHash: dummy,
	}
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateCredentials(email, password string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrValidationFailed)
	}
	if err := validate.Var(email, "email"); err != nil {
		return fmt.Errorf("%w: %q is not a valid email", ErrValidationFailed, email)
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidationFailed, MinPasswordLength)
	}
	if len(password) > maxPasswordBytes {
		return fmt.Errorf("%w: password must be at most %d bytes", ErrValidationFailed, maxPasswordBytes)
	}
	return nil
}

// Create validates and stores a new user. Only the password hash is persisted.
func (s *Service) Create(ctx context.Context, email, password string) (*store.User, error) {
	email = NormalizeEmail(email)
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &store.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

// FindByCredentials returns the user with the given email and password.
// Unknown email and wrong password both return ErrNotFound.
func (s *Service) FindByCredentials(ctx context.Context, email, password string) (*store.User, error) {
	user, err := s.users.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = s.hasher.Verify(password, s.dummyHash)
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrNotFound
	}
	return user, nil
}

// IssueSessionToken signs a new session token for user and appends it to the
// user's persisted token list.
func (s *Service) IssueSessionToken(ctx context.Context, user *store.User) (string, error) {
	token, err := s.codec.Issue(user.ID, auth.PurposeAuth)
	if err != nil {
		return "", err
	}

	entry := store.UserToken{Token: token, Access: auth.PurposeAuth}
	if err := s.users.AddUserToken(ctx, user.ID, entry); err != nil {
		return "", fmt.Errorf("storing session token: %w", err)
	}

	user.Tokens = append(user.Tokens, entry)
	return token, nil
}

// RevokeToken removes token from user's list. Revoking an absent token is a no-op.
func (s *Service) RevokeToken(ctx context.Context, user *store.User, token string) error {
	if err := s.users.RemoveUserToken(ctx, user.ID, token); err != nil {
		return fmt.Errorf("removing session token: %w", err)
	}

	kept := user.Tokens[:0]
	for _, t := range user.Tokens {
		if t.Token != token {
			kept = append(kept, t)
		}
	}
	user.Tokens = kept

	s.logger.Info("session token revoked", "user_id", user.ID)
	return nil
}

// ResolveByToken returns the user a session token belongs to. The token must
// verify, carry the auth purpose, and still be in the user's token list.
func (s *Service) ResolveByToken(ctx context.Context, token string) (*store.User, error) {
	claims, err := s.codec.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Purpose != auth.PurposeAuth {
		return nil, fmt.Errorf("%w: unexpected purpose %q", ErrInvalidToken, claims.Purpose)
	}

	user, err := s.users.GetUser(ctx, claims.PrincipalID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if !user.HasToken(token) {
		return nil, fmt.Errorf("%w: token revoked", ErrInvalidToken)
	}
	return user, nil
}

// Register creates a user and issues its first session token.
func (s *Service) Register(ctx context.Context, email, password string) (*store.User, string, error) {
	user, err := s.Create(ctx, email, password)
	if err != nil {
		return nil, "", err
	}
	token, err := s.IssueSessionToken(ctx, user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login checks credentials and issues a new session token.
func (s *Service) Login(ctx context.Context, email, password string) (*store.User, string, error) {
	user, err := s.FindByCredentials(ctx, email, password)
	if err != nil {
		return nil, "", err
	}
	token, err := s.IssueSessionToken(ctx, user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}
