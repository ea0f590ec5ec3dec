package conference

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pharmawms/backend/internal/domain/inventory"
	"github.com/pharmawms/backend/internal/domain/shared"
)

// Direction parameterises the blind conference.
type Direction string

const (
	DirectionReceiving Direction = "receiving"
	DirectionStaging   Direction = "staging"
)

// Status of a session.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusDivergent  Status = "divergent"
)

// Line is one (product, lot) to count. ExpectedQuantity is never shown to
// the operator while counting.
type Line struct {
	ID               uuid.UUID
	SessionID        uuid.UUID
	ProductID        uuid.UUID
	Lot              string
	ExpectedQuantity int64
	CountedQuantity  int64
}

func (l *Line) Key() inventory.LotKey {
	return inventory.NewLotKey(l.ProductID, l.Lot)
}

func (l *Line) Matches() bool {
	return l.CountedQuantity > 0 && l.CountedQuantity == l.ExpectedQuantity
}

// Session is a blind count at receiving or staging.
type Session struct {
	shared.BaseAggregateRoot
	Direction    Direction
	SubjectID    uuid.UUID
	OperatorID   uuid.UUID
	Status       Status
	Lines        []Line
	Forced       bool
	AuthorizedBy *uuid.UUID
	StartedAt    *time.Time
	FinishedAt   *time.Time
}

// ExpectedLine seeds a session line.
type ExpectedLine struct {
	Key      inventory.LotKey
	Quantity int64
}

// NewSession creates a not-started session. Expected lines with the same
// key are summed; keys never merge across lots.
func NewSession(tenantID uuid.UUID, dir Direction, subjectID, operatorID uuid.UUID, expected []ExpectedLine) (*Session, error) {
	if dir != DirectionReceiving && dir != DirectionStaging {
		return nil, shared.BadRequestf("unknown conference direction %q", dir)
	}
	s := &Session{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(tenantID),
		Direction:         dir,
		SubjectID:         subjectID,
		OperatorID:        operatorID,
		Status:            StatusNotStarted,
	}
	for _, e := range expected {
		if line := s.Line(e.Key); line != nil {
			line.ExpectedQuantity += e.Quantity
			continue
		}
		s.Lines = append(s.Lines, Line{
			ID:               uuid.New(),
			SessionID:        s.ID,
			ProductID:        e.Key.ProductID,
			Lot:              e.Key.Lot,
			ExpectedQuantity: e.Quantity,
		})
	}
	if len(s.Lines) == 0 {
		return nil, shared.BadRequestf("nothing to conference")
	}
	return s, nil
}

// Line returns the line for key, or nil.
func (s *Session) Line(key inventory.LotKey) *Line {
	for i := range s.Lines {
		if s.Lines[i].Key().Equal(key) {
			return &s.Lines[i]
		}
	}
	return nil
}

func (s *Session) Start() error {
	if s.Status != StatusNotStarted {
		return shared.InvalidStatef("conference session is %s", s.Status)
	}
	now := time.Now()
	s.Status = StatusInProgress
	s.StartedAt = &now
	s.Touch()
	return nil
}

// Count adds qty counted units of key.
func (s *Session) Count(key inventory.LotKey, qty int64) (*Line, error) {
	if s.Status != StatusInProgress {
		return nil, shared.InvalidStatef("conference session is %s", s.Status)
	}
	if qty <= 0 {
		return nil, shared.BadRequestf("counted quantity must be positive, got %d", qty)
	}
	line := s.Line(key)
	if line == nil {
		if s.Direction == DirectionStaging {
			return nil, shared.NotFoundf("product lot %s is not part of this order", key)
		}
		return nil, shared.BadRequestf("product lot %s is not expected on this receipt", key)
	}
	line.CountedQuantity += qty
	s.Touch()
	return line, nil
}

// Mismatch describes a line whose count differs from expectation.
type Mismatch struct {
	Key      inventory.LotKey
	Expected int64
	Counted  int64
}

// Uncounted lists the keys of lines with no count.
func (s *Session) Uncounted() []inventory.LotKey {
	var out []inventory.LotKey
	for _, l := range s.Lines {
		if l.CountedQuantity == 0 {
			out = append(out, l.Key())
		}
	}
	return out
}

// Mismatches lists lines that are zero-counted or differ from expectation.
func (s *Session) Mismatches() []Mismatch {
	var out []Mismatch
	for _, l := range s.Lines {
		if !l.Matches() {
			out = append(out, Mismatch{Key: l.Key(), Expected: l.ExpectedQuantity, Counted: l.CountedQuantity})
		}
	}
	return out
}

// Finish closes the session. All lines matching completes it. Otherwise the
// session is divergent with counts preserved, unless force is set with an
// authorizing identity, which completes it and records the override. Force
// only overrides count differences: a line nobody counted keeps the session
// open.
func (s *Session) Finish(force bool, authorizedBy *uuid.UUID) (Status, error) {
	if s.Status != StatusInProgress {
		return s.Status, shared.InvalidStatef("conference session is %s", s.Status)
	}
	if force && (authorizedBy == nil || *authorizedBy == uuid.Nil) {
		return s.Status, shared.Forbiddenf("forcing a conference requires an authorizing supervisor")
	}
	if force {
		if uncounted := s.Uncounted(); len(uncounted) > 0 {
			keys := make([]string, len(uncounted))
			for i, k := range uncounted {
				keys[i] = k.String()
			}
			return s.Status, shared.BadRequestf("cannot force a conference with uncounted lines: %s", strings.Join(keys, ", ")).
				WithDetail("uncounted", keys)
		}
	}
	now := time.Now()
	s.FinishedAt = &now
	s.Touch()

	mismatches := s.Mismatches()
	switch {
	case len(mismatches) == 0:
		s.Status = StatusCompleted
	case force:
		s.Status = StatusCompleted
		s.Forced = true
		s.AuthorizedBy = authorizedBy
	default:
		s.Status = StatusDivergent
		s.Raise(NewDivergenceDetectedEvent(s, mismatches))
	}
	return s.Status, nil
}
