package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cityassist.org/internal/auth"
	"cityassist.org/internal/incident"
)

func citizenAPI(incidents *stubIncidents) *API {
	return newTestAPI(Options{
		Auth:      identAuth(auth.Identity{UserID: "cit-1", Role: auth.RoleCitizen}),
		Incidents: incidents,
	})
}

func TestCreateIncidentSetsLocationHeader(t *testing.T) {
	api := citizenAPI(&stubIncidents{
		create: func(_ context.Context, ident auth.Identity, in incident.CreateInput) (*incident.Incident, error) {
			if ident.UserID != "cit-1" {
				t.Fatalf("identity not propagated: %+v", ident)
			}
			return &incident.Incident{ID: "inc-1", Number: 7, Title: in.Title, Type: in.Type,
				Severity: "medium", Status: "new", ReporterID: ident.UserID}, nil
		},
	})

	body := `{"title":"Waterlogging","type":"flood","location":"Zone A"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/incidents", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer tok")
	rr := doRequest(t, api, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d (body: %s)", rr.Code, rr.Body.String())
	}
	if loc := rr.Header().Get("Location"); loc != "/api/v1/incidents/inc-1" {
		t.Fatalf("Location = %q", loc)
	}
	var resp map[string]any
	decodeBody(t, rr, &resp)
	if resp["number"] != float64(7) || resp["status"] != "new" {
		t.Fatalf("unexpected incident payload: %v", resp)
	}
}

func TestCreateIncidentAnonymousIs403(t *testing.T) {
	api := newTestAPI(Options{
		Auth: identAuth(auth.Identity{}),
		Incidents: &stubIncidents{
			create: func(_ context.Context, ident auth.Identity, _ incident.CreateInput) (*incident.Incident, error) {
				return nil, incident.ErrAccessDenied
			},
		},
	})

	body := `{"title":"x","type":"flood"}`
	rr := doRequest(t, api, httptest.NewRequest(http.MethodPost, "/api/v1/incidents", strings.NewReader(body)))
	if rr.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rr.Code)
	}
}

func TestListIncidentsParsesFilters(t *testing.T) {
	var gotFilters incident.Filters
	var gotPage, gotSize int
	api := citizenAPI(&stubIncidents{
		list: func(_ context.Context, _ auth.Identity, f incident.Filters, page, size int) (*incident.Page, error) {
			gotFilters, gotPage, gotSize = f, page, size
			return &incident.Page{Items: []*incident.Incident{}, Page: page, Size: size}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/incidents?status=new&severity=high&zone=riverside&from=2026-08-01T00:00:00Z&page=2&size=10", nil)
	rr := doRequest(t, api, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d (body: %s)", rr.Code, rr.Body.String())
	}
	if gotFilters.Status != "new" || gotFilters.Severity != "high" || gotFilters.Zone != "riverside" {
		t.Fatalf("filters = %+v", gotFilters)
	}
	want, _ := time.Parse(time.RFC3339, "2026-08-01T00:00:00Z")
	if !gotFilters.ReportedAfter.Equal(want) {
		t.Fatalf("from = %v", gotFilters.ReportedAfter)
	}
	if gotPage != 2 || gotSize != 10 {
		t.Fatalf("page/size = %d/%d", gotPage, gotSize)
	}
}

func TestListIncidentsRejectsBadPaging(t *testing.T) {
	api := citizenAPI(&stubIncidents{})
	rr := doRequest(t, api, httptest.NewRequest(http.MethodGet, "/api/v1/incidents?size=0", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestGetIncidentMissingIs404(t *testing.T) {
	api := citizenAPI(&stubIncidents{
		get: func(context.Context, auth.Identity, string) (*incident.Incident, error) {
			return nil, incident.ErrNotFound
		},
	})
	rr := doRequest(t, api, httptest.NewRequest(http.MethodGet, "/api/v1/incidents/ghost", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestGetIncidentForeignIs403(t *testing.T) {
	api := citizenAPI(&stubIncidents{
		get: func(context.Context, auth.Identity, string) (*incident.Incident, error) {
			return nil, incident.ErrAccessDenied
		},
	})
	rr := doRequest(t, api, httptest.NewRequest(http.MethodGet, "/api/v1/incidents/other", nil))
	if rr.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rr.Code)
	}
}

func TestGetIncidentByNumber(t *testing.T) {
	api := citizenAPI(&stubIncidents{
		getByNumber: func(_ context.Context, _ auth.Identity, number int64) (*incident.Incident, error) {
			if number != 42 {
				t.Fatalf("number = %d", number)
			}
			return &incident.Incident{ID: "inc-42", Number: 42}, nil
		},
	})
	rr := doRequest(t, api, httptest.NewRequest(http.MethodGet, "/api/v1/incidents/number/42", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d (body: %s)", rr.Code, rr.Body.String())
	}
}

func TestGetIncidentByNumberRejectsGarbage(t *testing.T) {
	api := citizenAPI(&stubIncidents{})
	rr := doRequest(t, api, httptest.NewRequest(http.MethodGet, "/api/v1/incidents/number/abc", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestStatusUpdateByNumberResolvesID(t *testing.T) {
	var updatedID string
	api := citizenAPI(&stubIncidents{
		getByNumber: func(context.Context, auth.Identity, int64) (*incident.Incident, error) {
			return &incident.Incident{ID: "inc-9", Number: 9}, nil
		},
		updateStatus: func(_ context.Context, _ auth.Identity, id, status, note string) (*incident.Incident, error) {
			updatedID = id
			return &incident.Incident{ID: id, Number: 9, Status: status}, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/incidents/number/9/status",
		strings.NewReader(`{"status":"resolved"}`))
	rr := doRequest(t, api, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d (body: %s)", rr.Code, rr.Body.String())
	}
	if updatedID != "inc-9" {
		t.Fatalf("updated id = %q", updatedID)
	}
}

func TestAssignRequiresTarget(t *testing.T) {
	api := citizenAPI(&stubIncidents{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/incidents/inc-1/assign",
		strings.NewReader(`{"assignedTo":""}`))
	rr := doRequest(t, api, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestTimelineMethods(t *testing.T) {
	api := citizenAPI(&stubIncidents{
		timeline: func(context.Context, auth.Identity, string) ([]*incident.TimelineEntry, error) {
			return []*incident.TimelineEntry{{ID: "t-1", IncidentID: "inc-1", Actor: "admin", Text: "done"}}, nil
		},
		addNote: func(_ context.Context, _ auth.Identity, id, text string) (*incident.TimelineEntry, error) {
			return &incident.TimelineEntry{ID: "t-2", IncidentID: id, Actor: "citizen", Text: text}, nil
		},
	})

	rr := doRequest(t, api, httptest.NewRequest(http.MethodGet, "/api/v1/incidents/inc-1/timeline", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("timeline GET status = %d", rr.Code)
	}

	rr = doRequest(t, api, httptest.NewRequest(http.MethodPost, "/api/v1/incidents/inc-1/timeline",
		strings.NewReader(`{"text":"any update?"}`)))
	if rr.Code != http.StatusCreated {
		t.Fatalf("timeline POST status = %d (body: %s)", rr.Code, rr.Body.String())
	}

	rr = doRequest(t, api, httptest.NewRequest(http.MethodDelete, "/api/v1/incidents/inc-1/timeline", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("timeline DELETE status = %d, want 405", rr.Code)
	}
}

// fixedIncidentStore serves a fixed ordered slice so paging can be checked
// end to end through the real incident service.
type fixedIncidentStore struct {
	items []*incident.Incident
}

func (s *fixedIncidentStore) Create(context.Context, *incident.Incident) error { return nil }

func (s *fixedIncidentStore) Find(context.Context, string) (*incident.Incident, error) {
	return nil, incident.ErrNotFound
}

func (s *fixedIncidentStore) FindByNumber(context.Context, int64) (*incident.Incident, error) {
	return nil, incident.ErrNotFound
}

func (s *fixedIncidentStore) List(_ context.Context, _ incident.Scope, _ incident.Filters, offset, limit int) ([]*incident.Incident, int64, error) {
	if offset >= len(s.items) {
		return nil, int64(len(s.items)), nil
	}
	end := offset + limit
	if end > len(s.items) {
		end = len(s.items)
	}
	return s.items[offset:end], int64(len(s.items)), nil
}

func (s *fixedIncidentStore) SetAssignee(context.Context, string, string) (*incident.Incident, error) {
	return nil, incident.ErrNotFound
}

func (s *fixedIncidentStore) SetStatus(context.Context, string, string, *incident.TimelineEntry) (*incident.Incident, error) {
	return nil, incident.ErrNotFound
}

func (s *fixedIncidentStore) SetSeverity(context.Context, string, string, *incident.TimelineEntry) (*incident.Incident, error) {
	return nil, incident.ErrNotFound
}

func (s *fixedIncidentStore) AppendTimeline(context.Context, *incident.TimelineEntry) error {
	return nil
}

func (s *fixedIncidentStore) ListTimeline(context.Context, string) ([]*incident.TimelineEntry, error) {
	return nil, nil
}

func TestDefaultPageStartsAtNewestIncident(t *testing.T) {
	store := &fixedIncidentStore{}
	for i := 0; i < 40; i++ {
		store.items = append(store.items, &incident.Incident{
			ID:     fmt.Sprintf("inc-%02d", i),
			Number: int64(i + 1),
		})
	}
	api := newTestAPI(Options{
		Auth:      identAuth(auth.Identity{UserID: "adm-1", Role: auth.RoleAdmin}),
		Incidents: incident.NewService(store),
	})

	firstItem := func(t *testing.T, query string) string {
		t.Helper()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/incidents"+query, nil)
		req.Header.Set("Authorization", "Bearer tok")
		rr := doRequest(t, api, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("GET %s status = %d (body: %s)", query, rr.Code, rr.Body.String())
		}
		var page incident.Page
		decodeBody(t, rr, &page)
		if len(page.Items) == 0 {
			t.Fatalf("GET %s returned no items", query)
		}
		return page.Items[0].ID
	}

	if got := firstItem(t, ""); got != "inc-00" {
		t.Fatalf("default page starts at %q, want inc-00", got)
	}
	if got := firstItem(t, "?page=0"); got != "inc-00" {
		t.Fatalf("page=0 starts at %q, want inc-00", got)
	}
	if got := firstItem(t, "?page=1"); got != "inc-20" {
		t.Fatalf("page=1 starts at %q, want inc-20", got)
	}
}

func TestUnknownIncidentSubresourceIs404(t *testing.T) {
	api := citizenAPI(&stubIncidents{})
	rr := doRequest(t, api, httptest.NewRequest(http.MethodGet, "/api/v1/incidents/inc-1/bogus", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}
