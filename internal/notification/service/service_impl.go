package service

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/NewAcropolis/api-sub000/internal/config"
	"github.com/NewAcropolis/api-sub000/internal/delivery"
	"github.com/NewAcropolis/api-sub000/internal/notification/domain"
	obsmetrics "github.com/NewAcropolis/api-sub000/internal/observability/metrics"
	orderdomain "github.com/NewAcropolis/api-sub000/internal/order/domain"
	"github.com/NewAcropolis/api-sub000/internal/providers/email"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type Params struct {
	fx.In

	Log        *zap.Logger
	Config     config.Config
	Email      email.Provider
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log         *zap.Logger
	email       email.Provider
	loc         *time.Location
	adminEmails []string
	frontendURL string
	obsMetrics  *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		log:         p.Log.Named("notification.service"),
		email:       p.Email,
		loc:         p.Config.Location(),
		adminEmails: p.Config.Email.AdminEmails,
		frontendURL: p.Config.FrontendURL,
		obsMetrics:  p.ObsMetrics,
	}
}

func (s *Service) Build(res orderdomain.AssembleResult) ([]domain.Message, error) {
	if res.Duplicate || res.Order == nil {
		return nil, nil
	}
	order := res.Order
	view := s.newView(order)

	var out []domain.Message
	if order.EmailAddress != "" {
		kind := BuyerKind(order)
		body, err := render(templateName(kind), view)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.Message{
			Kind:     kind,
			To:       []string{order.EmailAddress},
			Subject:  subject(kind),
			HTMLBody: body,
		})
	} else {
		s.log.Warn("order has no buyer email", zap.String("txn_id", order.TxnID))
	}

	if NeedsAdminAlert(order) {
		if len(s.adminEmails) == 0 {
			s.log.Warn("double delivery payment but no admin emails configured", zap.String("txn_id", order.TxnID))
			return out, nil
		}
		body, err := render(templateName(domain.KindAdminRefund), view)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.Message{
			Kind:     domain.KindAdminRefund,
			To:       s.adminEmails,
			Subject:  fmt.Sprintf("Refund needed for order %s", order.TxnID),
			HTMLBody: body,
		})
	}
	return out, nil
}

func (s *Service) Notify(ctx context.Context, res orderdomain.AssembleResult) error {
	msgs, err := s.Build(res)
	if err != nil {
		return fmt.Errorf("build messages: %w", err)
	}
	for _, m := range msgs {
		err := s.email.Send(ctx, m.To, m.Subject, m.HTMLBody)
		s.obsMetrics.RecordEmail(ctx, string(m.Kind), err == nil)
		if err != nil {
			s.log.Error("failed to send email",
				zap.String("txn_id", res.Order.TxnID),
				zap.String("kind", string(m.Kind)),
				zap.Error(err),
			)
			continue
		}
		s.log.Info("email sent", zap.String("txn_id", res.Order.TxnID), zap.String("kind", string(m.Kind)))
	}
	return nil
}

// BuyerKind picks the single buyer message for an order's delivery state.
func BuyerKind(order *orderdomain.Order) domain.Kind {
	switch status := order.DeliveryStatus; {
	case status == delivery.StatusMissingAddress,
		status == delivery.StatusNoDeliveryFee,
		delivery.IsPostageStatus(status):
		return domain.KindCompleteOrder
	case status == delivery.StatusRefund:
		return domain.KindRefund
	case status == delivery.StatusExtra && order.DeliveryBalance < 0:
		return domain.KindCompleteOrder
	case status == delivery.StatusExtra && order.DeliveryBalance > 0:
		return domain.KindRefund
	default:
		return domain.KindReceipt
	}
}

// NeedsAdminAlert is set when delivery was paid more than once and a refund
// is owed.
func NeedsAdminAlert(order *orderdomain.Order) bool {
	return order.DeliveryStatus == delivery.StatusRefund && order.DeliveryLines > 1
}

func subject(kind domain.Kind) string {
	switch kind {
	case domain.KindCompleteOrder:
		return "New Acropolis: please complete your order"
	case domain.KindRefund:
		return "New Acropolis: your order and refund"
	default:
		return "New Acropolis: your order receipt"
	}
}

func templateName(kind domain.Kind) string {
	if kind == domain.KindAdminRefund {
		return "admin_refund"
	}
	return string(kind)
}

func render(name string, data any) (string, error) {
	var b bytes.Buffer
	if err := templates.ExecuteTemplate(&b, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return b.String(), nil
}
