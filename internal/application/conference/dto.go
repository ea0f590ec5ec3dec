package conference

import (
	"time"

	"github.com/google/uuid"

	"github.com/pharmawms/backend/internal/domain/conference"
	"github.com/pharmawms/backend/internal/domain/receiving"
)

// LabelBinding supplies the product lot of a label nobody has seen before.
type LabelBinding struct {
	ProductID       uuid.UUID
	Lot             string
	ExpiresAt       *time.Time
	UnitsPerPackage int64
}

// ReceivingScanRequest counts a scanned label at receiving. Quantity
// defaults to one package.
type ReceivingScanRequest struct {
	TenantID    uuid.UUID
	SessionID   uuid.UUID
	Label       string
	Quantity    *int64
	Association *LabelBinding
}

// ScanResult reports a count. It never carries the expected quantity.
// When RequiresAssociation is set the label was not recognised and nothing
// was counted.
type ScanResult struct {
	SessionID           uuid.UUID `json:"session_id"`
	Code                string    `json:"code"`
	ProductID           uuid.UUID `json:"product_id,omitempty"`
	Lot                 string    `json:"lot,omitempty"`
	Added               int64     `json:"added"`
	Counted             int64     `json:"counted"`
	RequiresAssociation bool      `json:"requires_association"`
}

// StagingScanRequest counts a scanned label at staging.
type StagingScanRequest struct {
	TenantID  uuid.UUID
	SessionID uuid.UUID
	Label     string
	Quantity  *int64
}

// CompleteStagingRequest closes a staging session. Force completes despite
// mismatches and must name the authorizing supervisor.
type CompleteStagingRequest struct {
	TenantID     uuid.UUID
	SessionID    uuid.UUID
	Force        bool
	AuthorizedBy *uuid.UUID
	OperatorID   uuid.UUID
}

type FileDivergenceRequest struct {
	TenantID         uuid.UUID
	ReceivingOrderID uuid.UUID
	ItemID           uuid.UUID
	Kind             receiving.DivergenceKind
	Reason           string
	ReportedBy       uuid.UUID
}

type ApproveDivergenceRequest struct {
	TenantID         uuid.UUID
	ReceivingOrderID uuid.UUID
	DivergenceID     uuid.UUID
	SupervisorID     uuid.UUID
	Justification    string
}

// LineResponse is a session line. Expected is only filled once the session
// has finished.
type LineResponse struct {
	ProductID uuid.UUID `json:"product_id"`
	Lot       string    `json:"lot,omitempty"`
	Counted   int64     `json:"counted"`
	Expected  *int64    `json:"expected,omitempty"`
	Matches   *bool     `json:"matches,omitempty"`
}

type SessionResult struct {
	ID           uuid.UUID      `json:"id"`
	Direction    string         `json:"direction"`
	SubjectID    uuid.UUID      `json:"subject_id"`
	OperatorID   uuid.UUID      `json:"operator_id"`
	Status       string         `json:"status"`
	Forced       bool           `json:"forced"`
	AuthorizedBy *uuid.UUID     `json:"authorized_by,omitempty"`
	StartedAt    *time.Time     `json:"started_at,omitempty"`
	FinishedAt   *time.Time     `json:"finished_at,omitempty"`
	Lines        []LineResponse `json:"lines"`
}

func toSessionResult(s *conference.Session) *SessionResult {
	out := &SessionResult{
		ID:           s.ID,
		Direction:    string(s.Direction),
		SubjectID:    s.SubjectID,
		OperatorID:   s.OperatorID,
		Status:       string(s.Status),
		Forced:       s.Forced,
		AuthorizedBy: s.AuthorizedBy,
		StartedAt:    s.StartedAt,
		FinishedAt:   s.FinishedAt,
		Lines:        make([]LineResponse, len(s.Lines)),
	}
	finished := s.Status == conference.StatusCompleted || s.Status == conference.StatusDivergent
	for i, l := range s.Lines {
		line := LineResponse{ProductID: l.ProductID, Lot: l.Lot, Counted: l.CountedQuantity}
		if finished {
			expected := l.ExpectedQuantity
			matches := l.Matches()
			line.Expected = &expected
			line.Matches = &matches
		}
		out.Lines[i] = line
	}
	return out
}

type ItemResponse struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	Lot       string    `json:"lot,omitempty"`
	Expected  int64     `json:"expected"`
	Received  int64     `json:"received"`
	Pending   int64     `json:"pending"`
	Status    string    `json:"status"`
}

type DivergenceResponse struct {
	ID            uuid.UUID  `json:"id"`
	ItemID        uuid.UUID  `json:"item_id"`
	Kind          string     `json:"kind"`
	Quantity      int64      `json:"quantity"`
	Reason        string     `json:"reason"`
	Status        string     `json:"status"`
	ApprovedBy    *uuid.UUID `json:"approved_by,omitempty"`
	Justification string     `json:"justification,omitempty"`
}

// ReceivingOrderResult is a receiving order after a conference step.
type ReceivingOrderResult struct {
	ID          uuid.UUID            `json:"id"`
	Number      string               `json:"number"`
	Status      string               `json:"status"`
	Items       []ItemResponse       `json:"items"`
	Divergences []DivergenceResponse `json:"divergences"`
	Session     *SessionResult       `json:"session,omitempty"`
}

func toReceivingOrderResult(o *receiving.Order) *ReceivingOrderResult {
	out := &ReceivingOrderResult{
		ID:          o.ID,
		Number:      o.Number,
		Status:      string(o.Status),
		Items:       make([]ItemResponse, len(o.Items)),
		Divergences: make([]DivergenceResponse, len(o.Divergences)),
	}
	for i, it := range o.Items {
		out.Items[i] = ItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Lot:       it.Lot,
			Expected:  it.ExpectedQuantity,
			Received:  it.ReceivedQuantity,
			Pending:   it.PendingBalance(),
			Status:    string(it.Status),
		}
	}
	for i, d := range o.Divergences {
		out.Divergences[i] = DivergenceResponse{
			ID:            d.ID,
			ItemID:        d.ItemID,
			Kind:          string(d.Kind),
			Quantity:      d.Quantity,
			Reason:        d.Reason,
			Status:        string(d.Status),
			ApprovedBy:    d.ApprovedBy,
			Justification: d.Justification,
		}
	}
	return out
}
