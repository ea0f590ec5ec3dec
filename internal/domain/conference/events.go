package conference

import (
	"github.com/google/uuid"

	"github.com/pharmawms/backend/internal/domain/shared"
)

const (
	AggregateTypeSession = "ConferenceSession"

	EventTypeDivergenceDetected = "conference.divergence.detected"
)

type MismatchPayload struct {
	ProductID uuid.UUID `json:"product_id"`
	Lot       string    `json:"lot,omitempty"`
	Expected  int64     `json:"expected"`
	Counted   int64     `json:"counted"`
}

// DivergenceDetectedEvent flags a divergent session for review.
type DivergenceDetectedEvent struct {
	shared.EventHeader
	Direction  Direction         `json:"direction"`
	SubjectID  uuid.UUID         `json:"subject_id"`
	Mismatches []MismatchPayload `json:"mismatches"`
}

func NewDivergenceDetectedEvent(s *Session, mismatches []Mismatch) *DivergenceDetectedEvent {
	payload := make([]MismatchPayload, 0, len(mismatches))
	for _, m := range mismatches {
		payload = append(payload, MismatchPayload{
			ProductID: m.Key.ProductID,
			Lot:       m.Key.Lot,
			Expected:  m.Expected,
			Counted:   m.Counted,
		})
	}
	return &DivergenceDetectedEvent{
		EventHeader: shared.NewEventHeader(EventTypeDivergenceDetected, AggregateTypeSession, s.ID, s.TenantID),
		Direction:   s.Direction,
		SubjectID:   s.SubjectID,
		Mismatches:  payload,
	}
}
