package alert

import "context"

// Store describes persistence for alerts and per-user read marks.
type Store interface {
	Create(ctx context.Context, a *Alert) error

	// List returns alerts newest first. A non-empty userID hides alerts the
	// user has already marked read; an empty one returns everything.
	List(ctx context.Context, userID string, offset, limit int) ([]*Alert, int64, error)

	Exists(ctx context.Context, id string) (bool, error)

	// MarkRead records that the user saw the alert; repeat calls are no-ops.
	MarkRead(ctx context.Context, alertID, userID string) error
}
