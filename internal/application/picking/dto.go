package picking

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pharmawms/backend/internal/domain/outbound"
)

// ScanRequest records one scan against a pick allocation. ManualQuantity is
// set when the operator typed a quantity instead of taking a package.
type ScanRequest struct {
	TenantID       uuid.UUID
	AllocationID   uuid.UUID
	Label          string
	ManualQuantity *int64
	OperatorID     uuid.UUID
}

// ScanResult reports what a scan applied. When RequiresManualQuantity is
// set nothing was applied and MaxQuantity is the most the operator may type.
type ScanResult struct {
	AllocationID           uuid.UUID `json:"allocation_id"`
	Applied                int64     `json:"applied"`
	PickedQuantity         int64     `json:"picked_quantity"`
	Remaining              int64     `json:"remaining"`
	Status                 string    `json:"status"`
	RequiresManualQuantity bool      `json:"requires_manual_quantity"`
	MaxQuantity            int64     `json:"max_quantity,omitempty"`
	LabelBound             bool      `json:"label_bound"`
}

// ProblemRequest reports that an allocation cannot be picked in full.
type ProblemRequest struct {
	TenantID     uuid.UUID
	AllocationID uuid.UUID
	Reason       outbound.ProblemReason
	OperatorID   uuid.UUID
}

// ProblemResult carries the replacement allocation when the shortfall was
// moved to another position.
type ProblemResult struct {
	AllocationID uuid.UUID           `json:"allocation_id"`
	Status       string              `json:"status"`
	Shortfall    int64               `json:"shortfall"`
	Rerouted     bool                `json:"rerouted"`
	Replacement  *AllocationResponse `json:"replacement,omitempty"`
}

// AllocationResponse is one stop of a pick route.
type AllocationResponse struct {
	ID             uuid.UUID  `json:"id"`
	Sequence       int        `json:"sequence"`
	LocationID     uuid.UUID  `json:"location_id"`
	LocationCode   string     `json:"location_code"`
	ProductID      uuid.UUID  `json:"product_id"`
	Lot            string     `json:"lot,omitempty"`
	Quantity       int64      `json:"quantity"`
	PickedQuantity int64      `json:"picked_quantity"`
	Remaining      int64      `json:"remaining"`
	Status         string     `json:"status"`
	ProblemReason  string     `json:"problem_reason,omitempty"`
	ReplacesID     *uuid.UUID `json:"replaces_id,omitempty"`
}

// RouteResult is a pick route in walking order.
type RouteResult struct {
	Kind        string               `json:"kind"`
	ID          uuid.UUID            `json:"id"`
	Allocations []AllocationResponse `json:"allocations"`
	Open        int                  `json:"open"`
	Quantity    int64                `json:"quantity"`
	Picked      int64                `json:"picked"`
	FillRate    decimal.Decimal      `json:"fill_rate"`
}

func toAllocationResponse(a *outbound.PickAllocation) AllocationResponse {
	return AllocationResponse{
		ID:             a.ID,
		Sequence:       a.Sequence,
		LocationID:     a.LocationID,
		LocationCode:   a.LocationCode,
		ProductID:      a.ProductID,
		Lot:            a.Lot,
		Quantity:       a.Quantity,
		PickedQuantity: a.PickedQuantity,
		Remaining:      a.Remaining(),
		Status:         string(a.Status),
		ProblemReason:  string(a.ProblemReason),
		ReplacesID:     a.ReplacesID,
	}
}

// toRouteResult summarises a route. Progress counts only what the route
// still has to deliver: a short-picked stop that was replaced contributes
// its picked units, and the replacement carries the rest.
func toRouteResult(route outbound.RouteRef, allocations []outbound.PickAllocation) *RouteResult {
	out := &RouteResult{
		Kind:        string(route.Kind),
		ID:          route.ID,
		Allocations: make([]AllocationResponse, len(allocations)),
	}
	replaced := make(map[uuid.UUID]bool)
	for _, a := range allocations {
		if a.ReplacesID != nil {
			replaced[*a.ReplacesID] = true
		}
	}
	for i := range allocations {
		a := &allocations[i]
		out.Allocations[i] = toAllocationResponse(a)
		if a.Status.IsOpen() {
			out.Open++
		}
		out.Picked += a.PickedQuantity
		if replaced[a.ID] {
			out.Quantity += a.PickedQuantity
		} else {
			out.Quantity += a.Quantity
		}
	}
	out.FillRate = outbound.FillRate(out.Picked, out.Quantity)
	return out
}
