package inventory

import (
	"strings"

	"github.com/google/uuid"

	"github.com/pharmawms/backend/internal/domain/shared"
)

// Zone classifies a location.
type Zone string

const (
	ZoneStorage    Zone = "storage"
	ZoneReceiving  Zone = "receiving"
	ZoneShipping   Zone = "shipping"
	ZoneQuarantine Zone = "quarantine"
	ZoneReturns    Zone = "returns"
)

func (z Zone) IsValid() bool {
	switch z {
	case ZoneStorage, ZoneReceiving, ZoneShipping, ZoneQuarantine, ZoneReturns:
		return true
	}
	return false
}

// Occupancy is derived from stock presence, never stored.
type Occupancy string

const (
	OccupancyEmpty    Occupancy = "empty"
	OccupancyOccupied Occupancy = "occupied"
	OccupancyBlocked  Occupancy = "blocked"
)

// Location is a physical address in the warehouse.
type Location struct {
	shared.TenantEntity
	Code    string
	Zone    Zone
	Blocked bool
}

// NewLocation validates and creates a location.
func NewLocation(tenantID uuid.UUID, code string, zone Zone) (*Location, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, shared.BadRequestf("location code cannot be empty")
	}
	if !zone.IsValid() {
		return nil, shared.BadRequestf("unknown zone %q", zone)
	}
	return &Location{
		TenantEntity: shared.NewTenantEntity(tenantID),
		Code:         code,
		Zone:         zone,
	}, nil
}

// IsPickable reports whether stock here may be allocated to outbound orders.
func (l *Location) IsPickable() bool {
	return l.Zone == ZoneStorage && !l.Blocked
}

// OccupancyFor derives the occupancy status from the on-hand quantity stored
// at the location.
func (l *Location) OccupancyFor(onHand int64) Occupancy {
	if l.Blocked {
		return OccupancyBlocked
	}
	if onHand > 0 {
		return OccupancyOccupied
	}
	return OccupancyEmpty
}
