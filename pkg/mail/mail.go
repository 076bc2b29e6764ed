// Package mail sends transactional email through SendGrid.
package mail

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/fekuna/cave-storefront/pkg/logger"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

type Message struct {
	To      string
	ToName  string
	ReplyTo string
	Subject string
	Body    string
}

func (m Message) validate() error {
	if strings.TrimSpace(m.To) == "" {
		return errors.New("mail: recipient is empty")
	}
	if strings.TrimSpace(m.Subject) == "" {
		return errors.New("mail: subject is empty")
	}
	return nil
}

// HTMLBody renders the plain-text body as escaped paragraphs.
func (m Message) HTMLBody() string {
	var b strings.Builder
	for _, para := range strings.Split(strings.TrimSpace(m.Body), "\n\n") {
		b.WriteString("<p>")
		b.WriteString(strings.ReplaceAll(html.EscapeString(para), "\n", "<br>"))
		b.WriteString("</p>")
	}
	return b.String()
}

type SendGridClient struct {
	client   *sendgrid.Client
	fromAddr string
	fromName string
}

func NewSendGridClient(apiKey, fromAddr, fromName string) *SendGridClient {
	return &SendGridClient{
		client:   sendgrid.NewSendClient(apiKey),
		fromAddr: fromAddr,
		fromName: fromName,
	}
}

func (c *SendGridClient) Send(ctx context.Context, m Message) error {
	if err := m.validate(); err != nil {
		return err
	}

	msg := sgmail.NewSingleEmail(
		sgmail.NewEmail(c.fromName, c.fromAddr),
		m.Subject,
		sgmail.NewEmail(m.ToName, m.To),
		m.Body,
		m.HTMLBody(),
	)
	if m.ReplyTo != "" {
		msg.SetReplyTo(sgmail.NewEmail("", m.ReplyTo))
	}

	res, err := c.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if res.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send failed: status=%d body=%s", res.StatusCode, res.Body)
	}
	return nil
}

// LogClient only logs messages. It stands in when no API key is set.
type LogClient struct {
	logger logger.ZapLogger
}

func NewLogClient(log logger.ZapLogger) *LogClient {
	return &LogClient{logger: log}
}

func (c *LogClient) Send(_ context.Context, m Message) error {
	if err := m.validate(); err != nil {
		return err
	}
	c.logger.Info("email not sent (no provider configured)",
		zap.String("to", m.To),
		zap.String("subject", m.Subject),
	)
	return nil
}
