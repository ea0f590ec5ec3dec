// Package lot holds the lot selection strategies used by allocation and by
// the alternate-position search of pick problem reports.
package lot

import (
	"github.com/google/uuid"

	"github.com/pharmawms/backend/internal/domain/inventory"
	"github.com/pharmawms/backend/internal/domain/outbound"
)

func baseQuery(tenantID uuid.UUID, line *outbound.OrderLine, ordering inventory.StockOrdering) inventory.EligibleQuery {
	return inventory.EligibleQuery{
		TenantID:  tenantID,
		ProductID: line.ProductID,
		Lot:       line.Lot,
		MinFree:   1,
		Ordering:  ordering,
	}
}

// tieBreak keeps ranking deterministic when the policy keys are equal.
func tieBreak(a, b inventory.StockCandidate) bool {
	if a.LocationCode != b.LocationCode {
		return a.LocationCode < b.LocationCode
	}
	return a.Position.ID.String() < b.Position.ID.String()
}
