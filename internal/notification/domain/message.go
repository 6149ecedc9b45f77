package domain

import (
	"context"

	orderdomain "github.com/NewAcropolis/api-sub000/internal/order/domain"
)

type Kind string

const (
	KindReceipt       Kind = "receipt"
	KindCompleteOrder Kind = "complete_order"
	KindRefund        Kind = "refund"
	KindAdminRefund   Kind = "admin_refund_alert"
)

// Message is a rendered email ready for the transport.
type Message struct {
	Kind     Kind
	To       []string
	Subject  string
	HTMLBody string
}

type Service interface {
	// Build renders the buyer message and, for double delivery payments, the
	// admin alert. Duplicates produce no messages.
	Build(res orderdomain.AssembleResult) ([]Message, error)
	// Notify builds and sends. Transport failures are logged, not returned.
	Notify(ctx context.Context, res orderdomain.AssembleResult) error
}
