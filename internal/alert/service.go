package alert

import (
	"context"
	"fmt"
	"strings"

	"cityassist.org/internal/auth"
)

const maxPageSize = 100

// CreateInput carries the fields of a new broadcast alert.
type CreateInput struct {
	Type     string
	Title    string
	Message  string
	Severity string
	Zone     string
}

// Service guards and drives the alert feed.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Create publishes a new alert. ADMIN only.
func (s *Service) Create(ctx context.Context, ident auth.Identity, in CreateInput) (*Alert, error) {
	if !ident.IsAdmin() {
		return nil, ErrAccessDenied
	}
	in.Type = strings.TrimSpace(in.Type)
	in.Title = strings.TrimSpace(in.Title)
	in.Message = strings.TrimSpace(in.Message)
	if in.Type == "" || in.Title == "" || in.Message == "" {
		return nil, fmt.Errorf("%w: type, title and message are required", ErrInvalidInput)
	}
	severity := strings.TrimSpace(in.Severity)
	if severity == "" {
		severity = "info"
	}
	a := &Alert{
		Type:     in.Type,
		Title:    in.Title,
		Message:  in.Message,
		Severity: severity,
		Zone:     strings.TrimSpace(in.Zone),
	}
	if err := s.store.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// List returns the alert feed newest first. Authenticated callers only see
// alerts they have not marked read; anonymous callers see everything.
func (s *Service) List(ctx context.Context, ident auth.Identity, page, size int) (*Page, error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = 20
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	items, total, err := s.store.List(ctx, ident.UserID, page*size, size)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*Alert{}
	}
	return &Page{Items: items, Total: total, Page: page, Size: size}, nil
}

// MarkRead hides the alert from the caller's future listings. Idempotent.
func (s *Service) MarkRead(ctx context.Context, ident auth.Identity, alertID string) error {
	if ident.UserID == "" {
		return ErrAccessDenied
	}
	ok, err := s.store.Exists(ctx, alertID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return s.store.MarkRead(ctx, alertID, ident.UserID)
}
