package incident

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cityassist.org/internal/auth"
)

const (
	defaultStatus   = "new"
	defaultSeverity = "medium"

	maxPageSize = 100
)

// CreateInput carries the caller-supplied fields for a new incident.
type CreateInput struct {
	Title    string
	Type     string
	Severity string
	Location string
	Data     map[string]any
}

// Service applies the authorization guard and drives incident lifecycle
// transitions. Every operation receives the caller identity explicitly.
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Create persists a new incident reported by the caller. Anonymous callers
// are rejected: without an identity there is nothing to bind as reporter.
func (s *Service) Create(ctx context.Context, ident auth.Identity, in CreateInput) (*Incident, error) {
	if ident.UserID == "" {
		return nil, ErrAccessDenied
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Type = strings.TrimSpace(in.Type)
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if in.Type == "" {
		return nil, fmt.Errorf("%w: type is required", ErrInvalidInput)
	}
	severity := strings.TrimSpace(in.Severity)
	if severity == "" {
		severity = defaultSeverity
	}
	inc := &Incident{
		Title:      in.Title,
		Type:       in.Type,
		Severity:   severity,
		Status:     defaultStatus,
		Location:   strings.TrimSpace(in.Location),
		ReporterID: ident.UserID,
		ReportedAt: s.now(),
		Data:       in.Data,
	}
	if err := s.store.Create(ctx, inc); err != nil {
		return nil, err
	}
	return inc, nil
}

// Get returns a single incident if the caller may view it.
func (s *Service) Get(ctx context.Context, ident auth.Identity, id string) (*Incident, error) {
	return s.view(ctx, ident, func() (*Incident, error) { return s.store.Find(ctx, id) })
}

// GetByNumber is an alias for Get keyed by the sequential incident number.
// Authorization is identical.
func (s *Service) GetByNumber(ctx context.Context, ident auth.Identity, number int64) (*Incident, error) {
	return s.view(ctx, ident, func() (*Incident, error) { return s.store.FindByNumber(ctx, number) })
}

func (s *Service) view(ctx context.Context, ident auth.Identity, load func() (*Incident, error)) (*Incident, error) {
	inc, err := load()
	if err != nil {
		return nil, err
	}
	if !CanView(ident, inc) {
		return nil, ErrAccessDenied
	}
	return inc, nil
}

// Assign sets the responsible operator. ADMIN only; assignment intentionally
// leaves no timeline entry since the field itself shows it.
func (s *Service) Assign(ctx context.Context, ident auth.Identity, id, targetUserID string) (*Incident, error) {
	inc, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanMutate(ident, inc, ActionAssign) {
		return nil, ErrAccessDenied
	}
	return s.store.SetAssignee(ctx, id, strings.TrimSpace(targetUserID))
}

// UpdateStatus transitions the incident status and appends a timeline entry
// in the same transaction. ADMIN always; OPERATOR only when assigned.
func (s *Service) UpdateStatus(ctx context.Context, ident auth.Identity, id, status, note string) (*Incident, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return nil, fmt.Errorf("%w: status is required", ErrInvalidInput)
	}
	inc, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanMutate(ident, inc, ActionUpdateStatus) {
		return nil, ErrAccessDenied
	}
	text := strings.TrimSpace(note)
	if text == "" {
		text = "Status updated to " + status
	}
	return s.store.SetStatus(ctx, id, status, &TimelineEntry{
		IncidentID: id,
		Actor:      actorLabel(ident.Role),
		Text:       text,
	})
}

// UpdateSeverity adjusts severity with the same transactional timeline append
// as status updates. ADMIN only.
func (s *Service) UpdateSeverity(ctx context.Context, ident auth.Identity, id, severity, note string) (*Incident, error) {
	severity = strings.TrimSpace(severity)
	if severity == "" {
		return nil, fmt.Errorf("%w: severity is required", ErrInvalidInput)
	}
	inc, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanMutate(ident, inc, ActionUpdateSeverity) {
		return nil, ErrAccessDenied
	}
	text := strings.TrimSpace(note)
	if text == "" {
		text = "Severity updated to " + severity
	}
	return s.store.SetSeverity(ctx, id, severity, &TimelineEntry{
		IncidentID: id,
		Actor:      actorLabel(ident.Role),
		Text:       text,
	})
}

// List returns the page of incidents visible to the caller. Guard scoping is
// applied before any caller filter; unauthenticated callers get an empty
// page, never an error.
func (s *Service) List(ctx context.Context, ident auth.Identity, f Filters, page, size int) (*Page, error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = 20
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	scope := ScopeFor(ident)
	if scope.Kind == ScopeNone {
		return &Page{Items: []*Incident{}, Page: page, Size: size}, nil
	}
	items, total, err := s.store.List(ctx, scope, f, page*size, size)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*Incident{}
	}
	return &Page{Items: items, Total: total, Page: page, Size: size}, nil
}

// Timeline returns the incident's audit rows in commit order.
func (s *Service) Timeline(ctx context.Context, ident auth.Identity, id string) ([]*TimelineEntry, error) {
	inc, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanView(ident, inc) {
		return nil, ErrAccessDenied
	}
	return s.store.ListTimeline(ctx, inc.ID)
}

// TimelineByNumber resolves the number then behaves exactly like Timeline.
func (s *Service) TimelineByNumber(ctx context.Context, ident auth.Identity, number int64) ([]*TimelineEntry, error) {
	inc, err := s.store.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if !CanView(ident, inc) {
		return nil, ErrAccessDenied
	}
	return s.store.ListTimeline(ctx, inc.ID)
}

// AddNote appends a free-form timeline entry authored by the caller's role.
// Requires view access on the incident.
func (s *Service) AddNote(ctx context.Context, ident auth.Identity, id, text string) (*TimelineEntry, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: text is required", ErrInvalidInput)
	}
	inc, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanView(ident, inc) {
		return nil, ErrAccessDenied
	}
	entry := &TimelineEntry{
		IncidentID: inc.ID,
		Actor:      actorLabel(ident.Role),
		Text:       text,
	}
	if err := s.store.AppendTimeline(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}
