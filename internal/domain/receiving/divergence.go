package receiving

import (
	"time"

	"github.com/google/uuid"
)

type DivergenceKind string

const (
	DivergenceShortage DivergenceKind = "shortage"
	DivergenceSurplus  DivergenceKind = "surplus"
)

type DivergenceStatus string

const (
	DivergencePending  DivergenceStatus = "pending"
	DivergenceApproved DivergenceStatus = "approved"
)

// Divergence is a filed mismatch between expected and received quantity,
// held for supervisor approval.
type Divergence struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	OrderID       uuid.UUID
	ItemID        uuid.UUID
	Kind          DivergenceKind
	Quantity      int64
	Reason        string
	Status        DivergenceStatus
	ReportedBy    uuid.UUID
	ReportedAt    time.Time
	ApprovedBy    *uuid.UUID
	ApprovedAt    *time.Time
	Justification string
}
