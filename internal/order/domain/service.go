package domain

import (
	"context"
	"errors"

	paymentdomain "github.com/NewAcropolis/api-sub000/internal/payment/domain"
	"github.com/NewAcropolis/api-sub000/pkg/money"
)

// AssembleResult is the outcome of reconciling one notification. Order is
// nil when Duplicate is set.
type AssembleResult struct {
	Order     *Order
	Duplicate bool
}

type Service interface {
	Assemble(ctx context.Context, n paymentdomain.Notification) (AssembleResult, error)
	GetByTxnID(ctx context.Context, txnID string) (*Order, error)
	CompleteDeliveryCorrection(ctx context.Context, txnID string, amountPaid money.Amount) (*Order, error)
}

var (
	ErrMissingTxnID        = errors.New("missing_txn_id")
	ErrPaymentNotCompleted = errors.New("payment_not_completed")
	ErrReceiverMismatch    = errors.New("receiver_mismatch")
	ErrOrderNotFound       = errors.New("order_not_found")
	ErrInvalidAmount       = errors.New("invalid_amount")
)

// IsRejection reports whether err is a business rejection: the notification
// is acknowledged but no order is created.
func IsRejection(err error) bool {
	return errors.Is(err, ErrMissingTxnID) ||
		errors.Is(err, ErrPaymentNotCompleted) ||
		errors.Is(err, ErrReceiverMismatch)
}
