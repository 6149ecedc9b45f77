package metrics

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
)

// IPN outcome labels.
const (
	OutcomeVerifiedCreated = "verified_created"
	OutcomeDuplicate       = "duplicate"
	OutcomeRejected        = "rejected"
	OutcomeInvalid         = "invalid"
	OutcomeUnverified      = "unverified"
	OutcomeFailed          = "failed"
)

// IPNMetrics counts payment notifications by outcome and how long they take to reconcile.
type IPNMetrics struct {
	notifications *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	storageErrors *prometheus.CounterVec
	lockContended prometheus.Counter
}

var (
	ipnOnce    sync.Once
	ipnMetrics *IPNMetrics
)

// IPNWithConfig returns the process-wide notification metrics labelled with service and env.
func IPNWithConfig(cfg Config) *IPNMetrics {
	ipnOnce.Do(func() {
		ipnMetrics = newIPNMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return ipnMetrics
}

func newIPNMetrics(registerer prometheus.Registerer, cfg Config) *IPNMetrics {
	constLabels := prometheus.Labels{
		"service": strings.TrimSpace(cfg.ServiceName),
		"env":     strings.TrimSpace(cfg.Environment),
	}
	if constLabels["service"] == "" {
		constLabels["service"] = "na-api"
	}

	m := &IPNMetrics{
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "na_ipn_notifications_total",
			Help:        "Payment notifications processed, by outcome",
			ConstLabels: constLabels,
		}, []string{"outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "na_ipn_processing_seconds",
			Help:        "Time taken to verify and reconcile a payment notification",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"outcome"}),
		storageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "na_ipn_storage_errors_total",
			Help:        "Storage failures while persisting orders, by error class",
			ConstLabels: constLabels,
		}, []string{"error_class"}),
		lockContended: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "na_ipn_lock_contended_total",
			Help:        "Notifications that found another delivery of the same transaction in flight",
			ConstLabels: constLabels,
		}),
	}

	registerer.MustRegister(m.notifications, m.duration, m.storageErrors, m.lockContended)
	return m
}

// ObserveNotification records one processed notification.
func (m *IPNMetrics) ObserveNotification(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome = strings.TrimSpace(outcome)
	if outcome == "" {
		outcome = "unknown"
	}
	m.notifications.WithLabelValues(outcome).Inc()
	m.duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// IncStorageError records a storage failure classified by ClassifyStorageError.
func (m *IPNMetrics) IncStorageError(err error) {
	if m == nil || err == nil {
		return
	}
	m.storageErrors.WithLabelValues(ClassifyStorageError(err)).Inc()
}

func (m *IPNMetrics) IncLockContended() {
	if m == nil {
		return
	}
	m.lockContended.Inc()
}

// ClassifyStorageError maps database errors to low-cardinality classes.
func ClassifyStorageError(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505":
			return "unique_violation"
		case strings.HasPrefix(pgErr.Code, "23"):
			return "integrity"
		case pgErr.Code == "40001" || pgErr.Code == "40P01":
			return "serialization"
		case strings.HasPrefix(pgErr.Code, "08"):
			return "connection"
		default:
			return "postgres"
		}
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "deadline exceeded") || strings.Contains(msg, "timeout"):
		return "timeout"
	case strings.Contains(msg, "connection"):
		return "connection"
	default:
		return "other"
	}
}
