package incident

import "context"

// Store describes persistence for incidents and their timelines. Mutations
// that carry a timeline entry must commit the field change and the append as
// one transaction.
type Store interface {
	Create(ctx context.Context, inc *Incident) error
	Find(ctx context.Context, id string) (*Incident, error)
	FindByNumber(ctx context.Context, number int64) (*Incident, error)
	List(ctx context.Context, scope Scope, f Filters, offset, limit int) ([]*Incident, int64, error)

	// SetAssignee updates assignedTo without touching the timeline.
	SetAssignee(ctx context.Context, id, assignee string) (*Incident, error)

	// SetStatus and SetSeverity update the field and append entry atomically.
	SetStatus(ctx context.Context, id, status string, entry *TimelineEntry) (*Incident, error)
	SetSeverity(ctx context.Context, id, severity string, entry *TimelineEntry) (*Incident, error)

	AppendTimeline(ctx context.Context, entry *TimelineEntry) error
	ListTimeline(ctx context.Context, incidentID string) ([]*TimelineEntry, error)
}
