package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/NewAcropolis/api-sub000/internal/clock"
	"github.com/NewAcropolis/api-sub000/internal/config"
	"github.com/NewAcropolis/api-sub000/internal/delivery"
	"github.com/NewAcropolis/api-sub000/internal/observability/logger"
	obsmetrics "github.com/NewAcropolis/api-sub000/internal/observability/metrics"
	"github.com/NewAcropolis/api-sub000/internal/order/domain"
	paymentdomain "github.com/NewAcropolis/api-sub000/internal/payment/domain"
	"github.com/NewAcropolis/api-sub000/internal/payment/lineitem"
	pkgdb "github.com/NewAcropolis/api-sub000/pkg/db"
	"github.com/NewAcropolis/api-sub000/pkg/money"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Config      config.Config
	Repo        domain.Repository
	Decoder     *lineitem.Decoder
	DeliveryCfg *config.DeliveryConfigHolder `optional:"true"`
	ObsMetrics  *obsmetrics.Metrics          `optional:"true"`
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	clock         clock.Clock
	loc           *time.Location
	receiverEmail string
	repo          domain.Repository
	decoder       *lineitem.Decoder
	deliveryCfg   *config.DeliveryConfigHolder
	obsMetrics    *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("order.service"),
		genID:         p.GenID,
		clock:         p.Clock,
		loc:           p.Config.Location(),
		receiverEmail: strings.TrimSpace(p.Config.PayPal.ReceiverEmail),
		repo:          p.Repo,
		decoder:       p.Decoder,
		deliveryCfg:   p.DeliveryCfg,
		obsMetrics:    p.ObsMetrics,
	}
}

// Assemble reconciles a verified notification into exactly one order. A
// notification whose txn_id is already stored is reported as a duplicate and
// has no side effects.
func (s *Service) Assemble(ctx context.Context, n paymentdomain.Notification) (domain.AssembleResult, error) {
	txnID := n.TxnID()
	if txnID == "" {
		s.log.Warn("notification without txn_id ignored")
		return domain.AssembleResult{}, domain.ErrMissingTxnID
	}
	log := logger.WithTxn(s.log, txnID)

	existing, err := s.repo.FindOrderByTxnID(ctx, s.db, txnID)
	if err != nil {
		return domain.AssembleResult{}, fmt.Errorf("find order: %w", err)
	}
	if existing != nil {
		log.Debug("order already exists for transaction")
		return domain.AssembleResult{Duplicate: true}, nil
	}

	if status := n.PaymentStatus(); status != paymentdomain.PaymentStatusCompleted {
		log.Info("payment not completed, no order created", zap.String("payment_status", status))
		return domain.AssembleResult{}, domain.ErrPaymentNotCompleted
	}
	// An unset receiver matches nothing.
	if s.receiverEmail == "" || !strings.EqualFold(n.ReceiverEmail(), s.receiverEmail) {
		log.Warn("notification for another receiver, no order created", zap.String("receiver_email", n.ReceiverEmail()))
		return domain.AssembleResult{}, domain.ErrReceiverMismatch
	}

	a := s.newAssembly(n)
	for _, d := range s.decoder.Decode(n) {
		if err := s.apply(ctx, a, d); err != nil {
			return domain.AssembleResult{}, err
		}
	}

	addr := n.Address()
	res := delivery.Resolve(s.feeMatrix(), delivery.Input{
		HasAddress:       !addr.IsEmpty(),
		CountryCode:      addr.CountryCode,
		Payments:         a.deliveries,
		RequiresDelivery: len(a.order.Books) > 0,
	})
	a.order.DeliveryZone = string(res.Zone)
	a.order.DeliveryStatus = res.Status
	a.order.DeliveryBalance = res.Balance
	a.order.DeliveryLines = len(a.deliveries)

	if err := s.repo.CreateOrderWithChildren(ctx, s.db, a.order); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			log.Debug("concurrent delivery already created the order")
			return domain.AssembleResult{Duplicate: true}, nil
		}
		return domain.AssembleResult{}, fmt.Errorf("create order: %w", err)
	}

	s.recordMetrics(ctx, a.order)
	log.Info("order created",
		zap.Int("tickets", len(a.order.Tickets)),
		zap.Int("books", len(a.order.Books)),
		zap.Int("errors", len(a.order.Errors)),
		zap.String("delivery_status", a.order.DeliveryStatus),
		zap.String("delivery_balance", a.order.DeliveryBalance.String()),
	)
	return domain.AssembleResult{Order: a.order}, nil
}

func (s *Service) GetByTxnID(ctx context.Context, txnID string) (*domain.Order, error) {
	txnID = strings.TrimSpace(txnID)
	if txnID == "" {
		return nil, domain.ErrOrderNotFound
	}
	order, err := s.repo.FindOrderByTxnID(ctx, s.db, txnID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrOrderNotFound
	}

	if order.Tickets, err = s.repo.ListTicketsByOrderID(ctx, s.db, order.ID); err != nil {
		return nil, err
	}
	if order.Books, err = s.repo.ListOrderBooks(ctx, s.db, order.ID); err != nil {
		return nil, err
	}
	if order.Errors, err = s.repo.ListOrderErrors(ctx, s.db, order.ID); err != nil {
		return nil, err
	}

	events := map[string]*domain.Event{}
	for i := range order.Tickets {
		t := &order.Tickets[i]
		event, ok := events[t.EventID]
		if !ok {
			if event, err = s.repo.FindEventByIDOrLegacyID(ctx, s.db, t.EventID); err != nil {
				return nil, err
			}
			events[t.EventID] = event
		}
		t.Event = event
		if event != nil {
			for j := range event.Dates {
				if event.Dates[j].ID == t.EventDateID {
					t.EventDate = &event.Dates[j]
				}
			}
		}
	}
	for i := range order.Books {
		if order.Books[i].Book, err = s.repo.FindBookByIDOrLegacyID(ctx, s.db, order.Books[i].BookID); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// CompleteDeliveryCorrection credits a later payment against an order whose
// delivery fee was short. Delivery is marked completed once nothing is owed.
func (s *Service) CompleteDeliveryCorrection(ctx context.Context, txnID string, amountPaid money.Amount) (*domain.Order, error) {
	txnID = strings.TrimSpace(txnID)
	if txnID == "" {
		return nil, domain.ErrOrderNotFound
	}
	if amountPaid <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	found, err := s.repo.UpdateDeliveryBalance(ctx, s.db, txnID, amountPaid, delivery.StatusCompleted, s.clock.Now().UTC())
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.ErrOrderNotFound
	}

	order, err := s.GetByTxnID(ctx, txnID)
	if err != nil {
		return nil, err
	}
	logger.WithTxn(s.log, txnID).Info("delivery correction applied",
		zap.String("amount", amountPaid.String()),
		zap.String("delivery_balance", order.DeliveryBalance.String()),
		zap.String("delivery_status", order.DeliveryStatus),
	)
	return order, nil
}

func (s *Service) newAssembly(n paymentdomain.Notification) *assembly {
	now := s.clock.Now().UTC()
	addr := n.Address()
	order := &domain.Order{
		ID:                 s.genID.Generate(),
		TxnID:              n.TxnID(),
		TxnType:            n.TxnType(),
		PaymentStatus:      n.PaymentStatus(),
		PaymentTotal:       n.Gross(),
		BuyerName:          n.BuyerName(),
		EmailAddress:       n.PayerEmail(),
		AddressStreet:      addr.Street,
		AddressCity:        addr.City,
		AddressPostalCode:  addr.Zip,
		AddressState:       addr.State,
		AddressCountry:     addr.Country,
		AddressCountryCode: addr.CountryCode,
		Params:             datatypes.JSONMap(n.Params()),
		CreatedAt:          now,
		UpdatedAt:          now,
		Tickets:            []domain.Ticket{},
		Books:              []domain.OrderBook{},
		Errors:             []domain.OrderError{},
	}
	if order.BuyerName == "" {
		order.BuyerName = addr.Name
	}
	return &assembly{order: order, bookIndex: map[string]int{}, now: now}
}

func (s *Service) feeMatrix() delivery.FeeMatrix {
	if s.deliveryCfg == nil {
		return delivery.DefaultFeeMatrix()
	}
	m, err := delivery.NewFeeMatrix(s.deliveryCfg.Get())
	if err != nil {
		s.log.Error("invalid delivery fee config, using defaults", zap.Error(err))
		return delivery.DefaultFeeMatrix()
	}
	return m
}

func (s *Service) recordMetrics(ctx context.Context, order *domain.Order) {
	if s.obsMetrics == nil {
		return
	}
	s.obsMetrics.RecordOrderCreated(ctx, order.DeliveryStatus)
	byType := map[domain.TicketType]int{}
	for _, t := range order.Tickets {
		byType[t.TicketType]++
	}
	for ticketType, n := range byType {
		s.obsMetrics.RecordTicketsIssued(ctx, string(ticketType), n)
	}
	s.obsMetrics.RecordOrderErrors(ctx, len(order.Errors))
}
