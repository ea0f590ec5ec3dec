package conference

import (
	"context"

	"github.com/google/uuid"
)

type SessionRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Session, error)
	// FindActive returns the in-progress session of a subject, or ErrNotFound.
	FindActive(ctx context.Context, tenantID uuid.UUID, dir Direction, subjectID uuid.UUID) (*Session, error)
	FindBySubject(ctx context.Context, tenantID uuid.UUID, dir Direction, subjectID uuid.UUID) ([]Session, error)
	Create(ctx context.Context, s *Session) error
	Save(ctx context.Context, s *Session) error
	// AddCounted increments a line count in the store.
	AddCounted(ctx context.Context, lineID uuid.UUID, qty int64) error
}
