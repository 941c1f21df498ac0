package notify

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	netmail "net/mail"
	"strings"
	"testing"
)

func readMessage(t *testing.T, msg Message) *netmail.Message {
	t.Helper()
	raw, err := msg.Bytes()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m, err := netmail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("read message: %v", err)
	}
	return m
}

func TestMessage_BytesMultipart(t *testing.T) {
	msg := Message{
		From:    "team@example.com",
		To:      "jane@x.io",
		Subject: "Follow-Up: Your CV is Under Review",
		Text:    "Hello Jane,",
		HTML:    "<p>Hello Jane,</p>",
	}
	m := readMessage(t, msg)

	from, err := m.Header.AddressList("From")
	if err != nil || len(from) != 1 || from[0].Address != "team@example.com" {
		t.Errorf("unexpected From %v (%v)", from, err)
	}
	to, err := m.Header.AddressList("To")
	if err != nil || len(to) != 1 || to[0].Address != "jane@x.io" {
		t.Errorf("unexpected To %v (%v)", to, err)
	}
	subject, err := new(mime.WordDecoder).DecodeHeader(m.Header.Get("Subject"))
	if err != nil || subject != msg.Subject {
		t.Errorf("unexpected subject %q (%v)", subject, err)
	}

	mediaType, params, err := mime.ParseMediaType(m.Header.Get("Content-Type"))
	if err != nil {
		t.Fatalf("parse content type: %v", err)
	}
	if mediaType != "multipart/alternative" {
		t.Fatalf("expected multipart/alternative, got %s", mediaType)
	}

	mr := multipart.NewReader(m.Body, params["boundary"])
	var types, bodies []string
	for {
		p, err := mr.NextRawPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("next part: %v", err)
		}
		body, _ := io.ReadAll(quotedprintable.NewReader(p))
		types = append(types, p.Header.Get("Content-Type"))
		bodies = append(bodies, strings.TrimSpace(string(body)))
	}
	if len(types) != 2 || !strings.HasPrefix(types[0], "text/plain") || !strings.HasPrefix(types[1], "text/html") {
		t.Fatalf("unexpected parts %v", types)
	}
	if bodies[0] != "Hello Jane," || bodies[1] != "<p>Hello Jane,</p>" {
		t.Errorf("unexpected bodies %q", bodies)
	}
}

func TestMessage_BytesPlainOnly(t *testing.T) {
	m := readMessage(t, Message{From: "a@example.com", To: "b@example.com", Subject: "Hi", Text: "plain"})
	if !strings.HasPrefix(m.Header.Get("Content-Type"), "text/plain") {
		t.Errorf("expected text/plain, got %q", m.Header.Get("Content-Type"))
	}
	body, _ := io.ReadAll(quotedprintable.NewReader(m.Body))
	if strings.TrimSpace(string(body)) != "plain" {
		t.Errorf("unexpected body %q", body)
	}
}

func TestMessage_BytesWithoutFrom(t *testing.T) {
	m := readMessage(t, Message{To: "b@example.com", Subject: "Hi", Text: "plain"})
	if m.Header.Get("From") != "" {
		t.Errorf("expected no From header, got %q", m.Header.Get("From"))
	}
}

func TestMessage_RejectsHeaderInjection(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
	}{
		{"to", Message{To: "a@b.com\r\nBcc: everyone@victims.example", Text: "x"}},
		{"to bare lf", Message{To: "a@b.com\nBcc: everyone@victims.example", Text: "x"}},
		{"from", Message{From: "team@example.com\r\nBcc: everyone@victims.example", To: "a@b.com", Text: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := tt.msg.Bytes()
			if err == nil {
				t.Fatalf("expected error, got message %q", raw)
			}
		})
	}
}

func TestMessage_SubjectStaysOneHeader(t *testing.T) {
	m := readMessage(t, Message{To: "a@b.com", Subject: "Hi\r\nBcc: everyone@victims.example", Text: "x"})
	if m.Header.Get("Bcc") != "" {
		t.Errorf("subject injected a Bcc header: %q", m.Header.Get("Bcc"))
	}
}
