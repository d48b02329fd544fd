package incident

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func incidentRows(t *testing.T) *sqlmock.Rows {
	t.Helper()
	return sqlmock.NewRows([]string{
		"id", "incident_number", "title", "incident_type", "severity", "status",
		"location", "reporter_id", "assigned_to", "reported_at", "data",
	})
}

func TestPGStoreCreateAllocatesNumber(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	// data is not null in the schema; a missing payload must insert {}, never NULL.
	mock.ExpectQuery(`insert into incidents`).
		WithArgs(sqlmock.AnyArg(), "Flooded underpass", "flood", "high", "new", "Zone B",
			"cit-1", nil, sqlmock.AnyArg(), []byte("{}")).
		WillReturnRows(sqlmock.NewRows([]string{"incident_number"}).AddRow(int64(42)))

	store := NewPGStore(db)
	inc := &Incident{
		Title: "Flooded underpass", Type: "flood", Severity: "high", Status: "new",
		Location: "Zone B", ReporterID: "cit-1", ReportedAt: time.Now().UTC(),
	}
	if err := store.Create(context.Background(), inc); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if inc.Number != 42 {
		t.Fatalf("number = %d, want 42", inc.Number)
	}
	if inc.ID == "" {
		t.Fatal("expected a generated id")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStoreSetStatusIsTransactional(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`select id from incidents where id=$1 for update`)).
		WithArgs("inc-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("inc-1"))
	mock.ExpectQuery(`update incidents set status=\$2 where id=\$1 returning`).
		WithArgs("inc-1", "resolved").
		WillReturnRows(incidentRows(t).
			AddRow("inc-1", int64(7), "Flood", "flood", "high", "resolved", "Zone B",
				"cit-1", "op-1", now, nil))
	mock.ExpectExec(`insert into incident_timeline`).
		WithArgs(sqlmock.AnyArg(), "inc-1", "admin", "Status updated to resolved").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	store := NewPGStore(db)
	inc, err := store.SetStatus(context.Background(), "inc-1", "resolved", &TimelineEntry{
		IncidentID: "inc-1", Actor: "admin", Text: "Status updated to resolved",
	})
	if err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if inc.Status != "resolved" {
		t.Fatalf("status = %q", inc.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStoreSetStatusMissingRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`select id from incidents where id=$1 for update`)).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	store := NewPGStore(db)
	_, err = store.SetStatus(context.Background(), "missing", "resolved", &TimelineEntry{
		IncidentID: "missing", Actor: "admin", Text: "Status updated to resolved",
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStoreListScopesBeforeFilters(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`select count\(\*\) from incidents where assigned_to = \$1 and status = \$2`).
		WithArgs("op-1", "new").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery(`select .+ from incidents where assigned_to = \$1 and status = \$2 order by reported_at desc`).
		WithArgs("op-1", "new", 20, 0).
		WillReturnRows(incidentRows(t).
			AddRow("inc-1", int64(7), "Flood", "flood", "high", "new", "Zone B",
				"cit-1", "op-1", now, []byte(`{"depth":2}`)))

	store := NewPGStore(db)
	items, total, err := store.List(context.Background(),
		Scope{Kind: ScopeAssigned, UserID: "op-1"}, Filters{Status: "new"}, 0, 20)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("total=%d items=%d", total, len(items))
	}
	if items[0].Data["depth"] != float64(2) {
		t.Fatalf("payload not decoded: %+v", items[0].Data)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
