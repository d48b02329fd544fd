package alert

import (
	"context"
	"database/sql"
	"fmt"

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

func (s *PGStore) Create(ctx context.Context, a *Alert) error {
	if a.ID == "" {
		a.ID = ids.New()
	}
	row := s.db.QueryRowContext(ctx,
		`insert into alerts(id, alert_type, title, message, severity, zone)
		 values($1,$2,$3,$4,$5,$6) returning created_at`,
		a.ID, a.Type, a.Title, a.Message, a.Severity, nullable(a.Zone))
	return row.Scan(&a.CreatedAt)
}

func (s *PGStore) List(ctx context.Context, userID string, offset, limit int) ([]*Alert, int64, error) {
	where := ""
	args := []any{}
	if userID != "" {
		where = ` where not exists (
			select 1 from alert_reads ar where ar.alert_id = alerts.id and ar.user_id = $1)`
		args = append(args, userID)
	}

	var total int64
	if err := s.db.QueryRowContext(ctx,
		`select count(*) from alerts`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	n := len(args)
	query := `select id, alert_type, title, message, severity, zone, created_at from alerts` +
		where + ` order by created_at desc limit ` + placeholder(n-1) + ` offset ` + placeholder(n)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Alert
	for rows.Next() {
		var (
			a    Alert
			zone sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.Type, &a.Title, &a.Message, &a.Severity, &zone, &a.CreatedAt); err != nil {
			return nil, 0, err
		}
		a.Zone = zone.String
		items = append(items, &a)
	}
	return items, total, rows.Err()
}

func (s *PGStore) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `select 1 from alerts where id=$1`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *PGStore) MarkRead(ctx context.Context, alertID, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`insert into alert_reads(alert_id, user_id) values($1,$2)
		 on conflict (alert_id, user_id) do nothing`,
		alertID, userID)
	return err
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}
