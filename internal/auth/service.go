package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service implements login, registration, token rotation and operator
// management on top of a Store and a TokenIssuer.
type Service struct {
	store      Store
	issuer     *TokenIssuer
	refreshTTL time.Duration
	now        func() time.Time
}

// NewService wires the auth service. refreshTTL bounds the lifetime of every
// refresh token the service mints.
func NewService(store Store, issuer *TokenIssuer, refreshTTL time.Duration) *Service {
	return &Service{
		store:      store,
		issuer:     issuer,
		refreshTTL: refreshTTL,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Login verifies credentials and mints a fresh token pair. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, *User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, nil, ErrInvalidCredentials
	}
	user, err := s.store.Users(ctx).FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	pair, err := s.mintPair(ctx, user.ID, user.Role)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

// Register creates a CITIZEN account and logs it in.
func (s *Service) Register(ctx context.Context, name, email, password string) (*TokenPair, *User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(strings.ToLower(email))
	if err := validateNewAccount(name, email, password); err != nil {
		return nil, nil, err
	}
	if _, err := s.store.Users(ctx).FindByEmail(ctx, email); err == nil {
		return nil, nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, nil, err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	user := &User{
		Email:        email,
		FullName:     name,
		PasswordHash: hash,
		Role:         RoleCitizen,
	}
	if err := s.store.Users(ctx).Create(ctx, user); err != nil {
		return nil, nil, err
	}
	pair, err := s.mintPair(ctx, user.ID, user.Role)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

// Refresh rotates the presented refresh token and mints a new access token.
// The owner's role is re-read so a role change takes effect on the next
// rotation; a token whose owner no longer exists is rejected outright.
func (s *Service) Refresh(ctx context.Context, presented string) (*TokenPair, error) {
	presented = strings.TrimSpace(presented)
	if presented == "" {
		return nil, ErrTokenInvalid
	}
	now := s.now()
	next := &RefreshToken{
		Token:     uuid.NewString(),
		ExpiresAt: now.Add(s.refreshTTL),
	}
	old, err := s.store.RefreshTokens(ctx).Rotate(ctx, presented, next, now)
	if err != nil {
		return nil, err
	}
	user, err := s.store.Users(ctx).Find(ctx, old.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}
	access, expiresAt, err := s.issuer.Issue(old.UserID, user.Role)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: next.Token,
		ExpiresAt:    expiresAt,
	}, nil
}

// Logout drops every refresh token owned by the user. Outstanding access
// tokens stay valid until they expire.
func (s *Service) Logout(ctx context.Context, userID string) error {
	return s.store.RefreshTokens(ctx).PurgeUser(ctx, userID)
}

// Authenticate resolves a bearer access token into an Identity.
func (s *Service) Authenticate(_ context.Context, token string) (Identity, error) {
	return s.issuer.Verify(token)
}

// CreateOperator provisions an OPERATOR account.
func (s *Service) CreateOperator(ctx context.Context, name, email, password string) (*User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(strings.ToLower(email))
	if err := validateNewAccount(name, email, password); err != nil {
		return nil, err
	}
	if _, err := s.store.Users(ctx).FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	user := &User{
		Email:        email,
		FullName:     name,
		PasswordHash: hash,
		Role:         RoleOperator,
	}
	if err := s.store.Users(ctx).Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ListOperators returns all OPERATOR accounts ordered by creation time.
func (s *Service) ListOperators(ctx context.Context) ([]*User, error) {
	return s.store.Users(ctx).ListByRole(ctx, RoleOperator)
}

// DeleteOperator removes an OPERATOR account together with its sessions.
func (s *Service) DeleteOperator(ctx context.Context, id string) error {
	user, err := s.store.Users(ctx).Find(ctx, id)
	if err != nil {
		return err
	}
	if user.Role != RoleOperator {
		return fmt.Errorf("%w: user %s is not an operator", ErrInvalidInput, id)
	}
	if err := s.store.RefreshTokens(ctx).PurgeUser(ctx, id); err != nil {
		return err
	}
	return s.store.Users(ctx).Delete(ctx, id)
}

// EnsureDefaultAdmin creates the bootstrap ADMIN account unless the email is
// already registered. Called once at startup.
func (s *Service) EnsureDefaultAdmin(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil
	}
	if _, err := s.store.Users(ctx).FindByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	return s.store.Users(ctx).Create(ctx, &User{
		Email:        email,
		FullName:     "Administrator",
		PasswordHash: hash,
		Role:         RoleAdmin,
	})
}

func (s *Service) mintPair(ctx context.Context, userID string, role Role) (*TokenPair, error) {
	access, expiresAt, err := s.issuer.Issue(userID, role)
	if err != nil {
		return nil, err
	}
	refresh := &RefreshToken{
		UserID:    userID,
		Token:     uuid.NewString(),
		ExpiresAt: s.now().Add(s.refreshTTL),
	}
	if err := s.store.RefreshTokens(ctx).Replace(ctx, refresh); err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh.Token,
		ExpiresAt:    expiresAt,
	}, nil
}

func validateNewAccount(name, email, password string) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	}
	if len(password) < 6 {
		return fmt.Errorf("%w: password must be at least 6 characters", ErrInvalidInput)
	}
	return nil
}
