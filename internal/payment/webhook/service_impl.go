package webhook

import (
	"context"
	"time"

	"github.com/NewAcropolis/api-sub000/internal/config"
	"github.com/NewAcropolis/api-sub000/internal/lock"
	notificationdomain "github.com/NewAcropolis/api-sub000/internal/notification/domain"
	obscontext "github.com/NewAcropolis/api-sub000/internal/observability/context"
	"github.com/NewAcropolis/api-sub000/internal/observability/logger"
	obsmetrics "github.com/NewAcropolis/api-sub000/internal/observability/metrics"
	"github.com/NewAcropolis/api-sub000/internal/observability/tracing"
	orderdomain "github.com/NewAcropolis/api-sub000/internal/order/domain"
	paymentdomain "github.com/NewAcropolis/api-sub000/internal/payment/domain"
	"github.com/NewAcropolis/api-sub000/internal/payment/verify"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	defaultLockTTL       = 30 * time.Second
	defaultNotifyTimeout = 20 * time.Second
)

type Params struct {
	fx.In

	Log        *zap.Logger
	Cfg        config.Config
	Gate       *verify.Gate
	OrderSvc   orderdomain.Service
	Notifier   notificationdomain.Service
	Locker     *lock.Locker           `optional:"true"`
	IPNMetrics *obsmetrics.IPNMetrics `optional:"true"`
}

type Service struct {
	log      *zap.Logger
	gate     *verify.Gate
	orderSvc orderdomain.Service
	notifier notificationdomain.Service
	locker   *lock.Locker
	lockTTL  time.Duration
	metrics  *obsmetrics.IPNMetrics

	notifyTimeout time.Duration
}

func NewService(p Params) paymentdomain.WebhookService {
	ttl := p.Cfg.Redis.LockTTL
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	notifyTimeout := 2 * p.Cfg.Email.Timeout
	if notifyTimeout <= 0 {
		notifyTimeout = defaultNotifyTimeout
	}
	return &Service{
		log:      p.Log.Named("payment.webhook"),
		gate:     p.Gate,
		orderSvc: p.OrderSvc,
		notifier: p.Notifier,
		locker:   p.Locker,
		lockTTL:  ttl,
		metrics:  p.IPNMetrics,

		notifyTimeout: notifyTimeout,
	}
}

func (s *Service) IngestNotification(ctx context.Context, rawBody []byte) (outcome paymentdomain.Outcome, err error) {
	start := time.Now()
	ctx, span := otel.Tracer("na-api/ipn").Start(ctx, "ipn.ingest")
	defer func() {
		span.SetAttributes(tracing.SafeAttributes(attribute.String("ipn.outcome", string(outcome)))...)
		if err != nil {
			span.RecordError(tracing.SafeError(err))
			span.SetStatus(codes.Error, "ipn_failed")
		}
		span.End()
		s.metrics.ObserveNotification(string(outcome), time.Since(start))
	}()

	n, err := paymentdomain.ParseNotification(rawBody)
	if err != nil {
		logger.WithContext(ctx, s.log).Warn("discarding malformed notification", zap.Error(err))
		return paymentdomain.OutcomeMalformed, nil
	}

	txnID := n.TxnID()
	ctx = obscontext.WithTxnID(ctx, txnID)
	span.SetAttributes(attribute.String("ipn.txn_id", txnID), attribute.String("ipn.txn_type", n.TxnType()))
	log := logger.WithContext(ctx, s.log)

	release, ok := s.acquire(ctx, log, txnID)
	if !ok {
		log.Info("notification for transaction already in flight")
		return paymentdomain.OutcomeDuplicate, nil
	}
	if release != nil {
		defer release()
	}

	result, err := s.gate.Verify(ctx, rawBody)
	if err != nil {
		log.Warn("notification could not be verified, discarded", zap.Error(err))
		return paymentdomain.OutcomeUnverified, nil
	}
	switch result {
	case verify.ResultVerified:
	case verify.ResultInvalid:
		log.Warn("notification rejected by verification endpoint")
		return paymentdomain.OutcomeInvalid, nil
	default:
		log.Warn("unexpected verification reply", zap.String("result", string(result)))
		return paymentdomain.OutcomeUnverified, nil
	}

	res, err := s.orderSvc.Assemble(ctx, n)
	if err != nil {
		if orderdomain.IsRejection(err) {
			return paymentdomain.OutcomeRejected, nil
		}
		s.metrics.IncStorageError(err)
		log.Error("failed to record order", zap.Error(err))
		return paymentdomain.OutcomeFailed, err
	}
	if res.Duplicate {
		return paymentdomain.OutcomeDuplicate, nil
	}

	// The order is stored; mail must neither outlive the budget nor be cut
	// short by PayPal hanging up.
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	defer cancel()
	if err := s.notifier.Notify(notifyCtx, res); err != nil {
		log.Error("failed to notify buyer", zap.Error(err))
	}
	return paymentdomain.OutcomeVerifiedCreated, nil
}

// acquire takes the per transaction lock when redis is configured. It
// reports false only when another delivery holds the lock; redis errors
// fall through to the database unique constraint.
func (s *Service) acquire(ctx context.Context, log *zap.Logger, txnID string) (func(), bool) {
	if !s.locker.Enabled() || txnID == "" {
		return nil, true
	}

	key := lock.TxnKey(txnID)
	token, ok, err := s.locker.TryLock(ctx, key, s.lockTTL)
	if err != nil {
		log.Warn("transaction lock unavailable", zap.Error(err))
		return nil, true
	}
	if !ok {
		s.metrics.IncLockContended()
		return nil, false
	}
	return func() {
		// The request context may already be cancelled.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		if err := s.locker.Release(releaseCtx, key, token); err != nil {
			log.Warn("failed to release transaction lock", zap.Error(err))
		}
	}, true
}
