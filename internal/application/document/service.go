package document

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pharmawms/backend/internal/application/uow"
	"github.com/pharmawms/backend/internal/domain/conference"
	"github.com/pharmawms/backend/internal/domain/outbound"
	"github.com/pharmawms/backend/internal/domain/shared"
)

// ErrNoArchive is returned by Publish operations when no archive is wired.
var ErrNoArchive = errors.New("document archive is not configured")

type Service struct {
	scope    uow.TransactionScope
	renderer Renderer
	archive  Archive
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates the document service. archive may be nil, in which
// case only the data operations are available.
func NewService(scope uow.TransactionScope, renderer Renderer, archive Archive, logger *zap.Logger) *Service {
	return &Service{
		scope:    scope,
		renderer: renderer,
		archive:  archive,
		logger:   logger.Named("document"),
		now:      time.Now,
	}
}

// PickRouteSheet gathers the stops of a started route.
func (s *Service) PickRouteSheet(ctx context.Context, tenantID uuid.UUID, route outbound.RouteRef) (*PickRouteSheet, error) {
	var sheet *PickRouteSheet
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		number, err := routeNumber(ctx, repos, tenantID, route)
		if err != nil {
			return err
		}
		allocations, err := repos.PickAllocations().FindByRoute(ctx, tenantID, route)
		if err != nil {
			return err
		}
		if len(allocations) == 0 {
			return shared.NotFoundf("%s route %s has not been started", route.Kind, route.ID)
		}

		productIDs := make([]uuid.UUID, 0, len(allocations))
		for _, a := range allocations {
			productIDs = append(productIDs, a.ProductID)
		}
		products, err := repos.Products().FindByIDs(ctx, tenantID, productIDs)
		if err != nil {
			return err
		}

		sheet = &PickRouteSheet{
			RouteKind:   string(route.Kind),
			RouteID:     route.ID,
			Number:      number,
			GeneratedAt: s.now().UTC(),
			Stops:       make([]PickStop, 0, len(allocations)),
		}
		expiries := make(map[uuid.UUID]*time.Time)
		for _, a := range allocations {
			expiresAt, ok := expiries[a.LotPositionID]
			if !ok {
				pos, err := repos.LotPositions().FindByID(ctx, tenantID, a.LotPositionID)
				if err != nil && !errors.Is(err, shared.ErrNotFound) {
					return err
				}
				if pos != nil {
					expiresAt = pos.ExpiresAt
				}
				expiries[a.LotPositionID] = expiresAt
			}
			stop := PickStop{
				Sequence:     a.Sequence,
				LocationCode: a.LocationCode,
				Lot:          a.Lot,
				ExpiresAt:    expiresAt,
				Quantity:     a.Quantity,
				Picked:       a.PickedQuantity,
				Status:       string(a.Status),
			}
			if p := products[a.ProductID]; p != nil {
				stop.SKU = p.SKU
				stop.Description = p.Description
			}
			sheet.Stops = append(sheet.Stops, stop)
			sheet.Quantity += a.Quantity
			sheet.Picked += a.PickedQuantity
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sheet, nil
}

// ConferenceSheet gathers the lines of a receiving or staging session.
func (s *Service) ConferenceSheet(ctx context.Context, tenantID, sessionID uuid.UUID) (*ConferenceSheet, error) {
	var sheet *ConferenceSheet
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		session, err := repos.Sessions().FindByID(ctx, tenantID, sessionID)
		if err != nil {
			return err
		}
		number, err := subjectNumber(ctx, repos, session)
		if err != nil {
			return err
		}

		productIDs := make([]uuid.UUID, 0, len(session.Lines))
		for _, l := range session.Lines {
			productIDs = append(productIDs, l.ProductID)
		}
		products, err := repos.Products().FindByIDs(ctx, tenantID, productIDs)
		if err != nil {
			return err
		}

		finished := session.Status == conference.StatusCompleted || session.Status == conference.StatusDivergent
		sheet = &ConferenceSheet{
			SessionID:   session.ID,
			Direction:   string(session.Direction),
			Number:      number,
			Status:      string(session.Status),
			OperatorID:  session.OperatorID,
			Forced:      session.Forced,
			StartedAt:   session.StartedAt,
			FinishedAt:  session.FinishedAt,
			GeneratedAt: s.now().UTC(),
			Lines:       make([]ConferenceLine, 0, len(session.Lines)),
		}
		for _, l := range session.Lines {
			line := ConferenceLine{Lot: l.Lot, Counted: l.CountedQuantity}
			if p := products[l.ProductID]; p != nil {
				line.SKU = p.SKU
				line.Description = p.Description
			}
			if finished {
				expected := l.ExpectedQuantity
				matches := l.Matches()
				line.Expected = &expected
				line.Matches = &matches
			}
			sheet.Lines = append(sheet.Lines, line)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sheet, nil
}

// RenderPickRoute renders a route sheet for direct printing.
func (s *Service) RenderPickRoute(ctx context.Context, tenantID uuid.UUID, route outbound.RouteRef) ([]byte, string, error) {
	if s.renderer == nil {
		return nil, "", errors.New("document renderer is not configured")
	}
	sheet, err := s.PickRouteSheet(ctx, tenantID, route)
	if err != nil {
		return nil, "", err
	}
	return s.renderer.Render(ctx, KindPickRoute, sheet)
}

// RenderConferenceSheet renders a conference sheet for direct printing.
func (s *Service) RenderConferenceSheet(ctx context.Context, tenantID, sessionID uuid.UUID) ([]byte, string, error) {
	if s.renderer == nil {
		return nil, "", errors.New("document renderer is not configured")
	}
	sheet, err := s.ConferenceSheet(ctx, tenantID, sessionID)
	if err != nil {
		return nil, "", err
	}
	return s.renderer.Render(ctx, KindConferenceSheet, sheet)
}

// PublishPickRoute renders a route sheet and archives it.
func (s *Service) PublishPickRoute(ctx context.Context, tenantID uuid.UUID, route outbound.RouteRef) (*Artifact, error) {
	if s.archive == nil || s.renderer == nil {
		return nil, ErrNoArchive
	}
	sheet, err := s.PickRouteSheet(ctx, tenantID, route)
	if err != nil {
		return nil, err
	}
	key := s.key(tenantID, KindPickRoute, sheet.Number)
	return s.publish(ctx, KindPickRoute, key, sheet)
}

// PublishConferenceSheet renders a conference sheet and archives it.
func (s *Service) PublishConferenceSheet(ctx context.Context, tenantID, sessionID uuid.UUID) (*Artifact, error) {
	if s.archive == nil || s.renderer == nil {
		return nil, ErrNoArchive
	}
	sheet, err := s.ConferenceSheet(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	key := s.key(tenantID, KindConferenceSheet, sheet.Number+"-"+sheet.Direction)
	return s.publish(ctx, KindConferenceSheet, key, sheet)
}

func (s *Service) publish(ctx context.Context, kind Kind, key string, data any) (*Artifact, error) {
	body, contentType, err := s.renderer.Render(ctx, kind, data)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", kind, err)
	}
	key += extension(contentType)
	if err := s.archive.Put(ctx, key, contentType, body); err != nil {
		return nil, err
	}
	url, expiresAt, err := s.archive.PresignedURL(ctx, key)
	if err != nil {
		return nil, err
	}
	s.logger.Info("document published",
		zap.String("kind", string(kind)),
		zap.String("key", key),
		zap.Int("bytes", len(body)),
	)
	return &Artifact{
		Kind:        kind,
		Key:         key,
		ContentType: contentType,
		Size:        len(body),
		URL:         url,
		ExpiresAt:   expiresAt,
	}, nil
}

// key lays documents out per tenant and kind, stamped so reprints never
// overwrite each other. The extension follows the rendered content type.
func (s *Service) key(tenantID uuid.UUID, kind Kind, name string) string {
	return fmt.Sprintf("%s/%s/%s-%s", tenantID, kind, name, s.now().UTC().Format("20060102T150405.000"))
}

func extension(contentType string) string {
	if strings.HasPrefix(contentType, "application/pdf") {
		return ".pdf"
	}
	return ".html"
}

func routeNumber(ctx context.Context, repos uow.Repositories, tenantID uuid.UUID, route outbound.RouteRef) (string, error) {
	switch route.Kind {
	case outbound.RouteOrder:
		o, err := repos.Orders().FindByID(ctx, tenantID, route.ID)
		if err != nil {
			return "", err
		}
		return o.Number, nil
	case outbound.RouteWave:
		w, err := repos.Waves().FindByID(ctx, tenantID, route.ID)
		if err != nil {
			return "", err
		}
		return w.Number, nil
	default:
		return "", shared.BadRequestf("unknown route kind %q", route.Kind)
	}
}

func subjectNumber(ctx context.Context, repos uow.Repositories, s *conference.Session) (string, error) {
	if s.Direction == conference.DirectionReceiving {
		o, err := repos.ReceivingOrders().FindByID(ctx, s.TenantID, s.SubjectID)
		if err != nil {
			return "", err
		}
		return o.Number, nil
	}
	o, err := repos.Orders().FindByID(ctx, s.TenantID, s.SubjectID)
	if err != nil {
		return "", err
	}
	return o.Number, nil
}
