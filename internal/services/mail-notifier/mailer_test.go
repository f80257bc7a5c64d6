package notifier

import (
	"context"
	"io"
	"net"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/NordCoder/Gatekeeper/internal/config/mail-notifier"
)

// fakeSMTP accepts one session and returns the DATA payload.
func fakeSMTP(t *testing.T) (string, <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	out := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		tp := textproto.NewConn(conn)
		_ = tp.PrintfLine("220 fake ESMTP")
		for {
			line, err := tp.ReadLine()
			if err != nil {
				return
			}
			cmd := strings.ToUpper(line)
			switch {
			case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
				_ = tp.PrintfLine("250 fake")
			case strings.HasPrefix(cmd, "MAIL FROM"), strings.HasPrefix(cmd, "RCPT TO"):
				_ = tp.PrintfLine("250 OK")
			case cmd == "DATA":
				_ = tp.PrintfLine("354 go ahead")
				b, _ := io.ReadAll(tp.DotReader())
				out <- string(b)
				_ = tp.PrintfLine("250 queued")
			case cmd == "QUIT":
				_ = tp.PrintfLine("221 bye")
				return
			default:
				_ = tp.PrintfLine("502 unknown")
			}
		}
	}()
	return ln.Addr().String(), out
}

func TestMailer_Send(t *testing.T) {
	addr, got := fakeSMTP(t)
	m := NewMailer(config.SMTP{
		Addr:       addr,
		From:       "noreply@gatekeeper.dev",
		Timeout:    2 * time.Second,
		SubjPrefix: "[Gatekeeper]",
	})

	require.NoError(t, m.Send(context.Background(), "alice@example.com", "Confirm your email", "hi"))

	select {
	case data := <-got:
		assert.Contains(t, data, "To: alice@example.com")
		assert.Contains(t, data, "Subject: [Gatekeeper] Confirm your email")
		assert.Contains(t, data, "\n\nhi\n")
	case <-time.After(2 * time.Second):
		t.Fatal("no DATA received")
	}
}

func TestMailer_DialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	m := NewMailer(config.SMTP{Addr: addr, From: "x@y.z", Timeout: time.Second})
	require.Error(t, m.Send(context.Background(), "a@b.c", "s", "b"))
}

func TestHost(t *testing.T) {
	assert.Equal(t, "smtp.example.com", host("smtp.example.com:587"))
	assert.Equal(t, "smtp.example.com", host("smtp.example.com"))
}
