package auth

import (
	"crypto/sha256"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "cityassist"

// Claims are the JWT claims carried by access tokens.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 access tokens. The signing key is the
// SHA-256 digest of the configured secret, so the HMAC key is always 256 bits
// regardless of secret length.
type TokenIssuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewTokenIssuer derives the signing key from secret and fixes the access TTL.
func NewTokenIssuer(secret string, ttl time.Duration) (*TokenIssuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: token secret is required")
	}
	if ttl <= 0 {
		return nil, errors.New("auth: access token ttl must be positive")
	}
	digest := sha256.Sum256([]byte(secret))
	return &TokenIssuer{
		key: digest[:],
		ttl: ttl,
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

// Issue signs an access token for the given user.
func (i *TokenIssuer) Issue(userID string, role Role) (string, time.Time, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", time.Time{}, errors.New("auth: user id is required")
	}
	now := i.now()
	expiresAt := now.Add(i.ttl)
	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify checks the signature and required claims and returns the identity
// encoded in the token. Every failure mode maps to ErrTokenInvalid or, for
// well-formed but stale tokens, ErrTokenExpired.
func (i *TokenIssuer) Verify(token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, ErrTokenInvalid
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrTokenInvalid
		}
		return i.key, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(i.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrTokenExpired
		}
		return Identity{}, ErrTokenInvalid
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Identity{}, ErrTokenInvalid
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return Identity{}, ErrTokenInvalid
	}
	role, ok := ParseRole(claims.Role)
	if !ok {
		return Identity{}, ErrTokenInvalid
	}
	return Identity{UserID: claims.Subject, Role: role}, nil
}
