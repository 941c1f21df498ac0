package notify

import (
	"context"
	"fmt"
)

// FollowUpSender composes and mails the follow-up email.
type FollowUpSender struct {
	composer *FollowUpComposer
	mailer   Mailer
	from     string
}

func NewFollowUpSender(composer *FollowUpComposer, mailer Mailer, from string) *FollowUpSender {
	return &FollowUpSender{composer: composer, mailer: mailer, from: from}
}

func (s *FollowUpSender) SendFollowUp(ctx context.Context, to, name string) error {
	subject, htmlBody, textBody, err := s.composer.Compose(name)
	if err != nil {
		return err
	}
	err = s.mailer.Send(ctx, Message{
		From:    s.from,
		To:      to,
		Subject: subject,
		Text:    textBody,
		HTML:    htmlBody,
	})
	if err != nil {
		return fmt.Errorf("send follow-up to %s: %w", to, err)
	}
	return nil
}
