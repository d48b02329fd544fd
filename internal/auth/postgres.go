package auth

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"cityassist.org/internal/ids"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Users(context.Context) UserStore { return &userStore{db: s.db} }
func (s *PGStore) RefreshTokens(context.Context) RefreshTokenStore {
	return &refreshTokenStore{db: s.db}
}

// User store ---------------------------------------------------------------
type userStore struct{ db *sql.DB }

const userColumns = `id, email, full_name, password_hash, role, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *userStore) Create(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into users(id, email, full_name, password_hash, role) values($1,$2,$3,$4,$5)`,
		u.ID, strings.ToLower(u.Email), u.FullName, u.PasswordHash, u.Role,
	)
	return err
}

func (s *userStore) Find(ctx context.Context, id string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where id=$1`, id)
	return scanUser(row)
}

func (s *userStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where email=$1`, strings.ToLower(email))
	return scanUser(row)
}

func (s *userStore) ListByRole(ctx context.Context, role Role) ([]*User, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+userColumns+` from users where role=$1 order by created_at asc`, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *userStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from users where id=$1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Refresh token store ------------------------------------------------------
type refreshTokenStore struct{ db *sql.DB }

func (s *refreshTokenStore) Replace(ctx context.Context, tok *RefreshToken) error {
	if tok.ID == "" {
		tok.ID = ids.New()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`delete from refresh_tokens where user_id=$1`, tok.UserID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`insert into refresh_tokens(id, user_id, token, expires_at) values($1,$2,$3,$4)`,
		tok.ID, tok.UserID, tok.Token, tok.ExpiresAt); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *refreshTokenStore) Rotate(ctx context.Context, presented string, next *RefreshToken, now time.Time) (*RefreshToken, error) {
	if next.ID == "" {
		next.ID = ids.New()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	// The row lock serializes concurrent rotations of the same token.
	row := tx.QueryRowContext(ctx,
		`select id, user_id, token, expires_at, created_at from refresh_tokens where token=$1 for update`,
		presented)
	var old RefreshToken
	if err := row.Scan(&old.ID, &old.UserID, &old.Token, &old.ExpiresAt, &old.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}
	if old.Expired(now) {
		// Burn the stale token so the expiry answer is permanent.
		if _, err := tx.ExecContext(ctx, `delete from refresh_tokens where id=$1`, old.ID); err != nil {
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		return nil, ErrTokenExpired
	}

	if _, err := tx.ExecContext(ctx,
		`delete from refresh_tokens where user_id=$1`, old.UserID); err != nil {
		return nil, err
	}
	next.UserID = old.UserID
	if _, err := tx.ExecContext(ctx,
		`insert into refresh_tokens(id, user_id, token, expires_at) values($1,$2,$3,$4)`,
		next.ID, next.UserID, next.Token, next.ExpiresAt); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &old, nil
}

func (s *refreshTokenStore) PurgeUser(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `delete from refresh_tokens where user_id=$1`, userID)
	return err
}
