package service

import (
	"context"
	"strings"
	"time"

	"github.com/NewAcropolis/api-sub000/internal/clock"
	"github.com/NewAcropolis/api-sub000/internal/config"
	obsmetrics "github.com/NewAcropolis/api-sub000/internal/observability/metrics"
	orderdomain "github.com/NewAcropolis/api-sub000/internal/order/domain"
	"github.com/NewAcropolis/api-sub000/internal/ticket/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Clock      clock.Clock
	Config     config.Config
	Repo       orderdomain.Repository
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	clock      clock.Clock
	loc        *time.Location
	repo       orderdomain.Repository
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("ticket.service"),
		clock:      p.Clock,
		loc:        p.Config.Location(),
		repo:       p.Repo,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) CheckIn(ctx context.Context, ref string) (domain.CheckInResult, error) {
	ref = strings.TrimSpace(ref)
	ticket, err := s.repo.FindTicketByIDOrLegacyID(ctx, s.db, ref)
	if err != nil {
		return domain.CheckInResult{}, err
	}
	if ticket == nil {
		return domain.CheckInResult{}, domain.ErrTicketNotFound
	}

	date, err := s.repo.FindEventDateByID(ctx, s.db, ticket.EventDateID)
	if err != nil {
		return domain.CheckInResult{}, err
	}
	if date == nil {
		return domain.CheckInResult{}, domain.ErrEventDateNotFound
	}

	result := domain.CheckInResult{TicketID: ticket.ID}
	event, err := s.repo.FindEventByIDOrLegacyID(ctx, s.db, ticket.EventID)
	if err != nil {
		return domain.CheckInResult{}, err
	}
	if event != nil {
		result.Title = event.Title
	}

	now := s.clock.Now()
	log := s.log.With(zap.String("ticket_id", ticket.ID))
	switch {
	case !sameDay(date.EventDatetime.In(s.loc), now.In(s.loc)):
		result.UpdateResponse, result.Outcome = domain.ReplyNotToday, domain.OutcomeNotToday
	case ticket.Status == orderdomain.TicketStatusUsed:
		result.UpdateResponse, result.Outcome = domain.ReplyAlreadyUsed, domain.OutcomeAlreadyUsed
	default:
		updated, err := s.repo.UpdateTicketStatus(ctx, s.db, ticket.ID, orderdomain.TicketStatusUnused, orderdomain.TicketStatusUsed, now.UTC())
		if err != nil {
			return domain.CheckInResult{}, err
		}
		if updated {
			result.UpdateResponse, result.Outcome = domain.ReplyUpdated, domain.OutcomeUpdated
		} else {
			// Another scan won the race.
			result.UpdateResponse, result.Outcome = domain.ReplyAlreadyUsed, domain.OutcomeAlreadyUsed
		}
	}

	log.Info("ticket check-in", zap.String("outcome", string(result.Outcome)))
	s.obsMetrics.RecordCheckIn(ctx, string(result.Outcome))
	return result, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
