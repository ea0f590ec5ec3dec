package inventory

import (
	"time"

	"github.com/google/uuid"

	"github.com/pharmawms/backend/internal/domain/shared"
)

// MovementType classifies a physical transfer.
type MovementType string

const (
	MovementReceiving  MovementType = "receiving"
	MovementStaging    MovementType = "staging"
	MovementShipment   MovementType = "shipment"
	MovementRelocation MovementType = "relocation"
	MovementAdjustment MovementType = "adjustment"
)

// MovementRecord is an append-only audit entry of a physical transfer.
// A nil location means outside the warehouse (in transit or shipped).
type MovementRecord struct {
	shared.TenantEntity
	Type           MovementType
	ProductID      uuid.UUID
	Lot            string
	FromLocationID *uuid.UUID
	ToLocationID   *uuid.UUID
	Quantity       int64
	ReferenceType  string
	ReferenceID    uuid.UUID
	OperatorID     *uuid.UUID
	OccurredAt     time.Time
}

// NewMovementRecord creates a movement record.
func NewMovementRecord(tenantID uuid.UUID, typ MovementType, key LotKey, from, to *uuid.UUID, qty int64, refType string, refID uuid.UUID) (*MovementRecord, error) {
	if qty <= 0 {
		return nil, shared.BadRequestf("movement quantity must be positive, got %d", qty)
	}
	if from == nil && to == nil {
		return nil, shared.BadRequestf("movement needs a source or a destination")
	}
	return &MovementRecord{
		TenantEntity:   shared.NewTenantEntity(tenantID),
		Type:           typ,
		ProductID:      key.ProductID,
		Lot:            key.Lot,
		FromLocationID: from,
		ToLocationID:   to,
		Quantity:       qty,
		ReferenceType:  refType,
		ReferenceID:    refID,
		OccurredAt:     time.Now(),
	}, nil
}

// By records the operator responsible for the movement.
func (m *MovementRecord) By(operatorID uuid.UUID) *MovementRecord {
	if operatorID != uuid.Nil {
		m.OperatorID = &operatorID
	}
	return m
}
