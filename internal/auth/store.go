package auth

import (
	"context"
	"time"
)

// Store describes persistence operations required by the auth subsystem.
type Store interface {
	Users(ctx context.Context) UserStore
	RefreshTokens(ctx context.Context) RefreshTokenStore
}

// UserStore manages accounts.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	ListByRole(ctx context.Context, role Role) ([]*User, error)
	Delete(ctx context.Context, id string) error
}

// RefreshTokenStore manages the refresh token lifecycle. Both operations keep
// the single-live-token-per-user invariant.
type RefreshTokenStore interface {
	// Replace atomically removes every token owned by tok.UserID and
	// persists tok as the only live one.
	Replace(ctx context.Context, tok *RefreshToken) error

	// Rotate looks up the presented token value under a row lock, validates
	// expiry, replaces the owner's tokens with next in the same transaction
	// and returns the consumed token. Concurrent rotations of the same value
	// are serialized by the lock; the loser observes a missing row and gets
	// ErrTokenInvalid.
	Rotate(ctx context.Context, presented string, next *RefreshToken, now time.Time) (*RefreshToken, error)

	// PurgeUser removes all tokens owned by the user (logout).
	PurgeUser(ctx context.Context, userID string) error
}
