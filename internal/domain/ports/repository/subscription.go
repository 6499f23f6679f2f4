package repository

import (
	"context"

	"invoiceflow/internal/domain/model"
)

// SubscriptionRepository is the port for recurring subscriptions.
type SubscriptionRepository interface {
	Save(ctx context.Context, tx Tx, sub *model.Subscription) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Subscription, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.Subscription, error)
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.Subscription, error)

	// UpdateSchedule replaces the schedule fields (last/next invoice date,
	// generation counter, status) iff the stored version still equals
	// expectedVersion, bumping the version on success. Returns
	// domain.ErrVersionConflict when another session advanced the
	// subscription first.
	UpdateSchedule(ctx context.Context, tx Tx, sub *model.Subscription, expectedVersion int64) error

	Delete(ctx context.Context, tx Tx, id string) error

	// CountByStatus feeds the subscriptions_total gauge.
	CountByStatus(ctx context.Context, tx Tx) (map[model.SubscriptionStatus]int, error)
}
