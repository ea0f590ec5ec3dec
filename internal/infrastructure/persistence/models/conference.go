package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/pharmawms/backend/internal/domain/conference"
)

// ConferenceSessionModel is the persistence model for a blind count session.
type ConferenceSessionModel struct {
	TenantAggregateModel
	Direction    string     `gorm:"type:varchar(20);not null;index:idx_session_subject,priority:1"`
	SubjectID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_session_subject,priority:2"`
	OperatorID   uuid.UUID  `gorm:"type:uuid;not null"`
	Status       string     `gorm:"type:varchar(20);not null"`
	Forced       bool       `gorm:"not null;default:false"`
	AuthorizedBy *uuid.UUID `gorm:"type:uuid"`
	StartedAt    *time.Time
	FinishedAt   *time.Time
	Lines        []ConferenceLineModel `gorm:"foreignKey:SessionID;references:ID"`
}

func (ConferenceSessionModel) TableName() string {
	return "conference_sessions"
}

type ConferenceLineModel struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key"`
	SessionID        uuid.UUID `gorm:"type:uuid;not null;index"`
	Position         int       `gorm:"not null;default:0"`
	ProductID        uuid.UUID `gorm:"type:uuid;not null"`
	Lot              string    `gorm:"type:varchar(64);not null;default:''"`
	ExpectedQuantity int64     `gorm:"not null"`
	CountedQuantity  int64     `gorm:"not null;default:0"`
}

func (ConferenceLineModel) TableName() string {
	return "conference_lines"
}

func (m *ConferenceSessionModel) ToDomain() *conference.Session {
	s := &conference.Session{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Direction:         conference.Direction(m.Direction),
		SubjectID:         m.SubjectID,
		OperatorID:        m.OperatorID,
		Status:            conference.Status(m.Status),
		Forced:            m.Forced,
		AuthorizedBy:      m.AuthorizedBy,
		StartedAt:         m.StartedAt,
		FinishedAt:        m.FinishedAt,
		Lines:             make([]conference.Line, len(m.Lines)),
	}
	for i, l := range m.Lines {
		s.Lines[i] = conference.Line{
			ID:               l.ID,
			SessionID:        l.SessionID,
			ProductID:        l.ProductID,
			Lot:              l.Lot,
			ExpectedQuantity: l.ExpectedQuantity,
			CountedQuantity:  l.CountedQuantity,
		}
	}
	return s
}

func ConferenceSessionModelFromDomain(s *conference.Session) *ConferenceSessionModel {
	m := &ConferenceSessionModel{
		Direction:    string(s.Direction),
		SubjectID:    s.SubjectID,
		OperatorID:   s.OperatorID,
		Status:       string(s.Status),
		Forced:       s.Forced,
		AuthorizedBy: s.AuthorizedBy,
		StartedAt:    s.StartedAt,
		FinishedAt:   s.FinishedAt,
		Lines:        make([]ConferenceLineModel, len(s.Lines)),
	}
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	for i, l := range s.Lines {
		m.Lines[i] = ConferenceLineModel{
			ID:               l.ID,
			SessionID:        s.ID,
			Position:         i,
			ProductID:        l.ProductID,
			Lot:              l.Lot,
			ExpectedQuantity: l.ExpectedQuantity,
			CountedQuantity:  l.CountedQuantity,
		}
	}
	return m
}
