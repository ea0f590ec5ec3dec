package receiving

import (
	"context"

	"github.com/google/uuid"
)

// OrderRepository persists receiving orders with their items and
// divergences. Save writes the whole aggregate under a version check.
type OrderRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Order, error)
	Create(ctx context.Context, o *Order) error
	Save(ctx context.Context, o *Order) error
}
