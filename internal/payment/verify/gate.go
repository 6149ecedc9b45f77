package verify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/NewAcropolis/api-sub000/internal/config"
	"github.com/NewAcropolis/api-sub000/internal/observability/tracing"
	paymentdomain "github.com/NewAcropolis/api-sub000/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Result string

const (
	ResultVerified Result = "VERIFIED"
	ResultInvalid  Result = "INVALID"
	ResultUnknown  Result = "UNKNOWN"
)

const (
	validateDirective = "cmd=_notify-validate"
	maxResponseBytes  = 1 << 10
)

// Gate confirms a notification really came from PayPal by posting it back.
type Gate struct {
	log      *zap.Logger
	url      string
	client   *http.Client
	disabled bool
}

type Params struct {
	fx.In

	Config config.Config
	Log    *zap.Logger
}

func NewGate(p Params) *Gate {
	timeout := p.Config.PayPal.VerifyTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Gate{
		log:      p.Log.Named("payment.verify"),
		url:      strings.TrimSpace(p.Config.PayPal.VerifyURL),
		client:   tracing.WrapHTTPClient(&http.Client{Timeout: timeout}),
		disabled: p.Config.PayPal.VerifyDisabled,
	}
}

// Verify re-posts rawBody with the validate directive appended. Transport
// failures, timeouts and non-2xx replies yield ResultUnknown together with
// an error wrapping ErrVerificationUnavailable.
func (g *Gate) Verify(ctx context.Context, rawBody []byte) (Result, error) {
	if g.disabled {
		g.log.Warn("payment verification disabled, trusting notification")
		return ResultVerified, nil
	}

	body := make([]byte, 0, len(rawBody)+len(validateDirective)+1)
	body = append(body, rawBody...)
	if len(body) > 0 {
		body = append(body, '&')
	}
	body = append(body, validateDirective...)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return ResultUnknown, fmt.Errorf("%w: %v", paymentdomain.ErrVerificationUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "na-api-ipn-verifier")

	resp, err := g.client.Do(req)
	if err != nil {
		return ResultUnknown, fmt.Errorf("%w: %v", paymentdomain.ErrVerificationUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return ResultUnknown, fmt.Errorf("%w: status %d", paymentdomain.ErrVerificationUnavailable, resp.StatusCode)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return ResultUnknown, fmt.Errorf("%w: %v", paymentdomain.ErrVerificationUnavailable, err)
	}

	switch strings.TrimSpace(string(payload)) {
	case string(ResultVerified):
		return ResultVerified, nil
	case string(ResultInvalid):
		return ResultInvalid, nil
	default:
		return ResultUnknown, nil
	}
}
