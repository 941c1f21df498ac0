package notify

import (
	"context"
	"net"
	"net/textproto"
	"strings"
	"testing"
	"time"
)

// fakeSMTP accepts one session and records the envelope and data. It
// advertises neither STARTTLS nor AUTH.
type fakeSMTP struct {
	ln   net.Listener
	from string
	to   string
	data string
	done chan struct{}
}

func startFakeSMTP(t *testing.T) *fakeSMTP {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	f := &fakeSMTP{ln: ln, done: make(chan struct{})}
	t.Cleanup(func() { ln.Close() })
	go f.serve()
	return f
}

func (f *fakeSMTP) serve() {
	defer close(f.done)
	conn, err := f.ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()

	tp := textproto.NewConn(conn)
	tp.PrintfLine("220 fake ESMTP")
	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}
		cmd := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
			tp.PrintfLine("250 fake")
		case strings.HasPrefix(cmd, "MAIL FROM:"):
			f.from = strings.Trim(line[len("MAIL FROM:"):], "<> ")
			tp.PrintfLine("250 ok")
		case strings.HasPrefix(cmd, "RCPT TO:"):
			f.to = strings.Trim(line[len("RCPT TO:"):], "<> ")
			tp.PrintfLine("250 ok")
		case cmd == "DATA":
			tp.PrintfLine("354 go ahead")
			lines, err := tp.ReadDotLines()
			if err != nil {
				return
			}
			f.data = strings.Join(lines, "\n")
			tp.PrintfLine("250 queued")
		case cmd == "NOOP", cmd == "RSET":
			tp.PrintfLine("250 ok")
		case cmd == "QUIT":
			tp.PrintfLine("221 bye")
			return
		default:
			tp.PrintfLine("502 unknown")
		}
	}
}

func TestSMTPMailer_Send(t *testing.T) {
	f := startFakeSMTP(t)
	addr := f.ln.Addr().(*net.TCPAddr)

	m := NewSMTPMailer("127.0.0.1", addr.Port, "team@example.com", "")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := m.Send(ctx, Message{
		From:    "team@example.com",
		To:      "jane@x.io",
		Subject: "Follow-Up: Your CV is Under Review",
		Text:    "Hello Jane,",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	<-f.done

	if f.from != "team@example.com" || f.to != "jane@x.io" {
		t.Errorf("unexpected envelope %q -> %q", f.from, f.to)
	}
	if !strings.Contains(f.data, "Subject: Follow-Up: Your CV is Under Review") || !strings.Contains(f.data, "jane@x.io") {
		t.Errorf("expected subject in data, got %q", f.data)
	}
}

func TestSMTPMailer_DialError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	m := NewSMTPMailer("127.0.0.1", port, "", "")
	if err := m.Send(context.Background(), Message{From: "a@b.c", To: "d@e.f"}); err == nil {
		t.Fatal("expected dial error")
	}
}


func TestSMTPMailer_RejectsInjectedRecipient(t *testing.T) {
	f := startFakeSMTP(t)
	addr := f.ln.Addr().(*net.TCPAddr)

	m := NewSMTPMailer("127.0.0.1", addr.Port, "team@example.com", "")
	err := m.Send(context.Background(), Message{
		From: "team@example.com",
		To:   "jane@x.io\r\nBcc: everyone@victims.example",
		Text: "Hello",
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if f.to != "" || f.data != "" {
		t.Errorf("expected nothing delivered, got rcpt %q", f.to)
	}
}
