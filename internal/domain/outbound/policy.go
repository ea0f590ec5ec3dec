package outbound

import (
	"strings"

	"github.com/google/uuid"

	"github.com/pharmawms/backend/internal/domain/shared"
)

// AllocationPolicy selects how lots are chosen for an order.
type AllocationPolicy string

const (
	PolicyFIFO     AllocationPolicy = "FIFO"
	PolicyFEFO     AllocationPolicy = "FEFO"
	PolicyDirected AllocationPolicy = "DIRECTED"
)

func (p AllocationPolicy) IsValid() bool {
	switch p {
	case PolicyFIFO, PolicyFEFO, PolicyDirected:
		return true
	}
	return false
}

// ParsePolicy parses a case-insensitive policy name.
func ParsePolicy(s string) (AllocationPolicy, error) {
	p := AllocationPolicy(strings.ToUpper(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", shared.BadRequestf("unknown allocation policy %q", s)
	}
	return p, nil
}

// CustomerPolicy is the allocation policy configured for one customer.
type CustomerPolicy struct {
	TenantID   uuid.UUID
	CustomerID uuid.UUID
	Policy     AllocationPolicy
}
