package email

import (
	"context"
	"errors"
	"net"
	"net/smtp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMTPProviderSend(t *testing.T) {
	p := NewSMTP(Config{Host: "mail.local", Port: 2525, From: "noreply@example.org"})
	p.now = func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC) }

	var gotAddr string
	var gotTo []string
	var gotMsg string
	p.send = func(_ context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		assert.Nil(t, a)
		assert.Equal(t, "noreply@example.org", from)
		return nil
	}

	err := p.Send(context.Background(), []string{"a@example.org", "b@example.org"}, "Your tickets", "<p>hi</p>")
	require.NoError(t, err)

	assert.Equal(t, "mail.local:2525", gotAddr)
	assert.Equal(t, []string{"a@example.org", "b@example.org"}, gotTo)
	assert.Contains(t, gotMsg, "To: a@example.org, b@example.org\r\n")
	assert.Contains(t, gotMsg, "Subject: Your tickets\r\n")
	assert.Contains(t, gotMsg, "Content-Type: text/html")
	assert.Contains(t, gotMsg, "\r\n\r\n<p>hi</p>")
}

func TestSMTPProviderErrors(t *testing.T) {
	p := NewSMTP(Config{Host: "mail.local", Port: 25})
	p.send = func(context.Context, string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}

	assert.ErrorIs(t, p.Send(context.Background(), nil, "s", "b"), ErrNoRecipients)
	assert.ErrorContains(t, p.Send(context.Background(), []string{"a@example.org"}, "s", "b"), "connection refused")
}

func TestSMTPProviderSendHonoursDeadline(t *testing.T) {
	p := NewSMTP(Config{Host: "127.0.0.1", Port: silentSMTPServer(t), From: "noreply@example.org", Timeout: 5 * time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := p.Send(ctx, []string{"a@example.org"}, "Your tickets", "<p>hi</p>")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestSMTPProviderSendUsesConfiguredTimeout(t *testing.T) {
	p := NewSMTP(Config{Host: "127.0.0.1", Port: silentSMTPServer(t), From: "noreply@example.org", Timeout: 150 * time.Millisecond})

	start := time.Now()
	err := p.Send(context.Background(), []string{"a@example.org"}, "Your tickets", "<p>hi</p>")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

// silentSMTPServer accepts connections and never sends a greeting.
func silentSMTPServer(t *testing.T) int {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var mu sync.Mutex
	var conns []net.Conn
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, conn)
			mu.Unlock()
		}
	}()

	t.Cleanup(func() {
		_ = ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			_ = c.Close()
		}
	})
	return ln.Addr().(*net.TCPAddr).Port
}
