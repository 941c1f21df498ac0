package notify

import (
	"bytes"
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
)

// Mailer delivers a single email message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type Message struct {
	From    string
	To      string
	Subject string
	Text    string
	HTML    string
}

// Msg builds the mail message for m. Addresses are parsed, so a value
// carrying extra header lines is rejected. From may be empty when the
// transport fills it in. With an HTML body the message is
// multipart/alternative, plain text first.
func (m Message) Msg() (*mail.Msg, error) {
	msg := mail.NewMsg()
	if m.From != "" {
		if err := msg.From(m.From); err != nil {
			return nil, fmt.Errorf("from address: %w", err)
		}
	}
	if err := msg.To(m.To); err != nil {
		return nil, fmt.Errorf("to address: %w", err)
	}
	msg.Subject(m.Subject)
	msg.SetDate()
	msg.SetMessageID()

	msg.SetBodyString(mail.TypeTextPlain, m.Text)
	if m.HTML != "" {
		msg.AddAlternativeString(mail.TypeTextHTML, m.HTML)
	}
	return msg, nil
}

// Bytes renders m as an RFC 5322 message.
func (m Message) Bytes() ([]byte, error) {
	msg, err := m.Msg()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("render message: %w", err)
	}
	return buf.Bytes(), nil
}
