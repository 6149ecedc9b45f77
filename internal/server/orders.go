package server

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	paymentdomain "github.com/NewAcropolis/api-sub000/internal/payment/domain"
	"github.com/NewAcropolis/api-sub000/internal/providers/pdf"
	"github.com/NewAcropolis/api-sub000/pkg/money"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PayPal notifications are small form posts; anything larger is not one.
const maxIPNBodyBytes = 64 << 10

// HandlePayPalIPN acknowledges every notification with a plain OK unless the
// order could not be stored, in which case PayPal is left to redeliver.
// Oversized bodies are refused whole rather than truncated and re-posted.
func (s *Server) HandlePayPalIPN(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxIPNBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.Set("ipn_outcome", string(paymentdomain.OutcomeOversized))
			s.log.Warn("refusing oversized payment notification", zap.Int64("limit_bytes", tooLarge.Limit))
			AbortWithError(c, ErrBodyTooLarge)
			return
		}
		AbortWithError(c, invalidRequestError())
		return
	}
	if values, err := url.ParseQuery(string(payload)); err == nil {
		c.Set("txn_id", strings.TrimSpace(values.Get("txn_id")))
	}

	outcome, err := s.webhookSvc.IngestNotification(c.Request.Context(), payload)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Set("ipn_outcome", string(outcome))
	c.String(http.StatusOK, "OK")
}

func (s *Server) CheckInTicket(c *gin.Context) {
	res, err := s.ticketSvc.CheckIn(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) GetOrder(c *gin.Context) {
	order, err := s.orderSvc.GetByTxnID(c.Request.Context(), c.Param("txn_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": order})
}

func (s *Server) GetOrderReceipt(c *gin.Context) {
	order, err := s.orderSvc.GetByTxnID(c.Request.Context(), c.Param("txn_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	doc, err := s.pdf.GenerateOrderReceipt(c.Request.Context(), pdf.ReceiptFromOrder(order, s.cfg.Location()))
	if err != nil {
		s.log.Error("failed to render receipt", zap.String("txn_id", order.TxnID), zap.Error(err))
		AbortWithError(c, err)
		return
	}

	c.DataFromReader(http.StatusOK, -1, "application/pdf", doc, map[string]string{
		"Content-Disposition": `attachment; filename="` + pdf.Filename(order) + `"`,
	})
}

type deliveryCorrectionRequest struct {
	Amount money.Amount `json:"amount" binding:"required"`
}

func (s *Server) CompleteDeliveryCorrection(c *gin.Context) {
	var req deliveryCorrectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("amount", "invalid_amount", "amount is required"))
		return
	}

	order, err := s.orderSvc.CompleteDeliveryCorrection(c.Request.Context(), c.Param("txn_id"), req.Amount)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": order})
}
