package document

import (
	"time"

	"github.com/google/uuid"
)

// PickRouteSheet is the data of a printed pick route. Stops are in walking
// order.
type PickRouteSheet struct {
	RouteKind   string     `json:"route_kind"`
	RouteID     uuid.UUID  `json:"route_id"`
	Number      string     `json:"number"`
	GeneratedAt time.Time  `json:"generated_at"`
	Stops       []PickStop `json:"stops"`
	Quantity    int64      `json:"quantity"`
	Picked      int64      `json:"picked"`
}

type PickStop struct {
	Sequence     int        `json:"sequence"`
	LocationCode string     `json:"location_code"`
	SKU          string     `json:"sku"`
	Description  string     `json:"description,omitempty"`
	Lot          string     `json:"lot,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	Quantity     int64      `json:"quantity"`
	Picked       int64      `json:"picked"`
	Status       string     `json:"status"`
}

// ConferenceSheet is the data of a printed conference. Expected quantities
// are only present once the session has finished, so a sheet printed
// during counting stays blind.
type ConferenceSheet struct {
	SessionID   uuid.UUID        `json:"session_id"`
	Direction   string           `json:"direction"`
	Number      string           `json:"number"`
	Status      string           `json:"status"`
	OperatorID  uuid.UUID        `json:"operator_id"`
	Forced      bool             `json:"forced"`
	StartedAt   *time.Time       `json:"started_at,omitempty"`
	FinishedAt  *time.Time       `json:"finished_at,omitempty"`
	GeneratedAt time.Time        `json:"generated_at"`
	Lines       []ConferenceLine `json:"lines"`
}

type ConferenceLine struct {
	SKU         string `json:"sku"`
	Description string `json:"description,omitempty"`
	Lot         string `json:"lot,omitempty"`
	Counted     int64  `json:"counted"`
	Expected    *int64 `json:"expected,omitempty"`
	Matches     *bool  `json:"matches,omitempty"`
}

// Artifact points at an archived document.
type Artifact struct {
	Kind        Kind      `json:"kind"`
	Key         string    `json:"key"`
	ContentType string    `json:"content_type"`
	Size        int       `json:"size"`
	URL         string    `json:"url"`
	ExpiresAt   time.Time `json:"expires_at"`
}
