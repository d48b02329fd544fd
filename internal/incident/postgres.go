package incident

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

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

const incidentColumns = `id, incident_number, title, incident_type, severity, status, location,
	reporter_id, assigned_to, reported_at, data`

func scanIncident(row interface{ Scan(...any) error }) (*Incident, error) {
	var (
		inc      Incident
		reporter sql.NullString
		assignee sql.NullString
		data     []byte
	)
	err := row.Scan(&inc.ID, &inc.Number, &inc.Title, &inc.Type, &inc.Severity, &inc.Status,
		&inc.Location, &reporter, &assignee, &inc.ReportedAt, &data)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	inc.ReporterID = reporter.String
	inc.AssignedTo = assignee.String
	if len(data) > 0 {
		_ = json.Unmarshal(data, &inc.Data)
	}
	return &inc, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (s *PGStore) Create(ctx context.Context, inc *Incident) error {
	if inc.ID == "" {
		inc.ID = ids.New()
	}
	// data is declared not null; a missing payload stores the empty document.
	data := []byte("{}")
	if inc.Data != nil {
		var err error
		data, err = json.Marshal(inc.Data)
		if err != nil {
			return fmt.Errorf("%w: payload not serializable", ErrInvalidInput)
		}
	}
	row := s.db.QueryRowContext(ctx,
		`insert into incidents(id, incident_number, title, incident_type, severity, status, location,
			reporter_id, assigned_to, reported_at, data)
		 values($1, nextval('incident_number_seq'), $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 returning incident_number`,
		inc.ID, inc.Title, inc.Type, inc.Severity, inc.Status, inc.Location,
		nullable(inc.ReporterID), nullable(inc.AssignedTo), inc.ReportedAt, data,
	)
	return row.Scan(&inc.Number)
}

func (s *PGStore) Find(ctx context.Context, id string) (*Incident, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+incidentColumns+` from incidents where id=$1`, id)
	return scanIncident(row)
}

func (s *PGStore) FindByNumber(ctx context.Context, number int64) (*Incident, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+incidentColumns+` from incidents where incident_number=$1`, number)
	return scanIncident(row)
}

func (s *PGStore) List(ctx context.Context, scope Scope, f Filters, offset, limit int) ([]*Incident, int64, error) {
	if scope.Kind == ScopeNone {
		return nil, 0, nil
	}

	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	switch scope.Kind {
	case ScopeAssigned:
		where = append(where, "assigned_to = "+arg(scope.UserID))
	case ScopeReporter:
		where = append(where, "reporter_id = "+arg(scope.UserID))
	}
	if f.Status != "" {
		where = append(where, "status = "+arg(f.Status))
	}
	if f.Severity != "" {
		where = append(where, "severity = "+arg(f.Severity))
	}
	if f.Zone != "" {
		where = append(where, "location ilike "+arg("%"+f.Zone+"%"))
	}
	if !f.ReportedAfter.IsZero() {
		where = append(where, "reported_at >= "+arg(f.ReportedAfter))
	}

	clause := ""
	if len(where) > 0 {
		clause = " where " + strings.Join(where, " and ")
	}

	var total int64
	if err := s.db.QueryRowContext(ctx,
		`select count(*) from incidents`+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `select ` + incidentColumns + ` from incidents` + clause +
		` order by reported_at desc limit ` + arg(limit) + ` offset ` + arg(offset)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Incident
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, inc)
	}
	return items, total, rows.Err()
}

func (s *PGStore) SetAssignee(ctx context.Context, id, assignee string) (*Incident, error) {
	row := s.db.QueryRowContext(ctx,
		`update incidents set assigned_to=$2 where id=$1 returning `+incidentColumns,
		id, nullable(assignee))
	return scanIncident(row)
}

func (s *PGStore) SetStatus(ctx context.Context, id, status string, entry *TimelineEntry) (*Incident, error) {
	return s.applyWithTimeline(ctx, id, "status", status, entry)
}

func (s *PGStore) SetSeverity(ctx context.Context, id, severity string, entry *TimelineEntry) (*Incident, error) {
	return s.applyWithTimeline(ctx, id, "severity", severity, entry)
}

// applyWithTimeline updates one mutable column and appends the timeline entry
// in a single transaction. The row lock serializes concurrent mutators of the
// same incident so every committed change keeps its entry.
func (s *PGStore) applyWithTimeline(ctx context.Context, id, column, value string, entry *TimelineEntry) (*Incident, error) {
	if entry.ID == "" {
		entry.ID = ids.New()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var locked string
	if err := tx.QueryRowContext(ctx,
		`select id from incidents where id=$1 for update`, id).Scan(&locked); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}

	// column is one of "status"/"severity", never caller input.
	row := tx.QueryRowContext(ctx,
		`update incidents set `+column+`=$2 where id=$1 returning `+incidentColumns,
		id, value)
	inc, err := scanIncident(row)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		`insert into incident_timeline(id, incident_id, actor, entry_text) values($1,$2,$3,$4)`,
		entry.ID, id, entry.Actor, entry.Text); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return inc, nil
}

func (s *PGStore) AppendTimeline(ctx context.Context, entry *TimelineEntry) error {
	if entry.ID == "" {
		entry.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into incident_timeline(id, incident_id, actor, entry_text) values($1,$2,$3,$4)`,
		entry.ID, entry.IncidentID, entry.Actor, entry.Text)
	return err
}

func (s *PGStore) ListTimeline(ctx context.Context, incidentID string) ([]*TimelineEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, incident_id, actor, entry_text, created_at
		 from incident_timeline where incident_id=$1 order by created_at asc`, incidentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*TimelineEntry
	for rows.Next() {
		var e TimelineEntry
		if err := rows.Scan(&e.ID, &e.IncidentID, &e.Actor, &e.Text, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
