package verify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/NewAcropolis/api-sub000/internal/config"
	paymentdomain "github.com/NewAcropolis/api-sub000/internal/payment/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newGate(url string, timeout time.Duration) *Gate {
	cfg := config.Config{PayPal: config.PayPalConfig{VerifyURL: url, VerifyTimeout: timeout}}
	return NewGate(Params{Config: cfg, Log: zap.NewNop()})
}

func TestVerifyPostsBodyWithDirective(t *testing.T) {
	var gotBody, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotContentType = r.Header.Get("Content-Type")
		_, _ = w.Write([]byte("VERIFIED\n"))
	}))
	defer srv.Close()

	res, err := newGate(srv.URL, time.Second).Verify(context.Background(), []byte("txn_id=A1&mc_gross=5.00"))
	require.NoError(t, err)
	assert.Equal(t, ResultVerified, res)
	assert.Equal(t, "txn_id=A1&mc_gross=5.00&cmd=_notify-validate", gotBody)
	assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)
}

func TestVerifyResponses(t *testing.T) {
	cases := map[string]Result{
		"INVALID": ResultInvalid,
		"maybe":   ResultUnknown,
		"":        ResultUnknown,
	}
	for reply, want := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(reply))
		}))
		res, err := newGate(srv.URL, time.Second).Verify(context.Background(), []byte("txn_id=A1"))
		srv.Close()
		assert.NoError(t, err, reply)
		assert.Equal(t, want, res, reply)
	}
}

func TestVerifyUpstreamFailures(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer failing.Close()

	res, err := newGate(failing.URL, time.Second).Verify(context.Background(), []byte("txn_id=A1"))
	assert.Equal(t, ResultUnknown, res)
	assert.ErrorIs(t, err, paymentdomain.ErrVerificationUnavailable)

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte("VERIFIED"))
	}))
	defer slow.Close()

	res, err = newGate(slow.URL, 20*time.Millisecond).Verify(context.Background(), []byte("txn_id=A1"))
	assert.Equal(t, ResultUnknown, res)
	assert.ErrorIs(t, err, paymentdomain.ErrVerificationUnavailable)

	res, err = newGate("http://127.0.0.1:1", time.Second).Verify(context.Background(), []byte("txn_id=A1"))
	assert.Equal(t, ResultUnknown, res)
	assert.ErrorIs(t, err, paymentdomain.ErrVerificationUnavailable)
}

func TestVerifyDisabled(t *testing.T) {
	cfg := config.Config{PayPal: config.PayPalConfig{VerifyDisabled: true}}
	res, err := NewGate(Params{Config: cfg, Log: zap.NewNop()}).Verify(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, ResultVerified, res)
}
