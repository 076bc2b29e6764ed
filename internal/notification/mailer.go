// Package notification composes the storefront's localized emails and
// delivers them through an EmailClient.
package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/fekuna/cave-storefront/internal/model"
	"github.com/fekuna/cave-storefront/internal/order"
	"github.com/fekuna/cave-storefront/pkg/i18n"
	"github.com/fekuna/cave-storefront/pkg/logger"
	"github.com/fekuna/cave-storefront/pkg/mail"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type EmailClient interface {
	Send(ctx context.Context, m mail.Message) error
}

type SyncRecorder interface {
	Record(ctx context.Context, platform, operation string, ok, failed int, message string, details model.JSONMap) *model.SyncLog
}

type Mailer struct {
	client     EmailClient
	tr         *i18n.Translator
	shopName   string
	staffInbox string
	syncLogs   SyncRecorder
	logger     logger.ZapLogger
}

func NewMailer(client EmailClient, tr *i18n.Translator, shopName, staffInbox string, syncLogs SyncRecorder, log logger.ZapLogger) *Mailer {
	return &Mailer{
		client:     client,
		tr:         tr,
		shopName:   shopName,
		staffInbox: staffInbox,
		syncLogs:   syncLogs,
		logger:     log,
	}
}

// FormatPrice renders cents the way each locale writes euros.
func FormatPrice(cents int64, locale string) string {
	amount := decimal.New(cents, -2).StringFixed(2)
	if locale == i18n.English {
		return "€" + amount
	}
	return strings.Replace(amount, ".", ",", 1) + " €"
}

func (m *Mailer) send(ctx context.Context, operation string, msg mail.Message, details model.JSONMap) error {
	err := m.client.Send(ctx, msg)
	if err != nil {
		m.logger.Error("failed to send email", zap.String("operation", operation), zap.Error(err))
		if m.syncLogs != nil {
			m.syncLogs.Record(ctx, model.PlatformEmail, operation, 0, 1, err.Error(), details)
		}
		return err
	}
	m.logger.Debug("email sent", zap.String("operation", operation), zap.String("subject", msg.Subject))
	return nil
}

func (m *Mailer) orderLines(p order.OrderPayload) string {
	var b strings.Builder
	for _, it := range p.Items {
		fmt.Fprintf(&b, "- %d x %s (%s)\n", it.Quantity, it.Name, FormatPrice(it.LineTotalCents, p.Locale))
	}
	return b.String()
}

func (m *Mailer) OrderConfirmation(ctx context.Context, p order.OrderPayload) error {
	data := map[string]any{
		"OrderNumber": p.OrderNumber,
		"Total":       FormatPrice(p.TotalCents, p.Locale),
		"Lines":       m.orderLines(p),
		"Shop":        m.shopName,
	}
	return m.send(ctx, "order_confirmation", mail.Message{
		To:      p.Email,
		ToName:  p.ShippingName,
		Subject: m.tr.T(p.Locale, "email_order_subject", data),
		Body:    m.tr.T(p.Locale, "email_order_body", data),
	}, model.JSONMap{"order_id": p.ID})
}

func (m *Mailer) PaymentConfirmation(ctx context.Context, p order.OrderPayload) error {
	data := map[string]any{
		"OrderNumber": p.OrderNumber,
		"Total":       FormatPrice(p.TotalCents, p.Locale),
		"Shop":        m.shopName,
	}
	return m.send(ctx, "payment_confirmation", mail.Message{
		To:      p.Email,
		ToName:  p.ShippingName,
		Subject: m.tr.T(p.Locale, "email_payment_subject", data),
		Body:    m.tr.T(p.Locale, "email_payment_body", data),
	}, model.JSONMap{"order_id": p.ID})
}

func (m *Mailer) InquiryAcknowledgement(ctx context.Context, in *model.ContactInquiry) error {
	data := map[string]any{"Name": in.Name, "Subject": in.Subject, "Shop": m.shopName}
	return m.send(ctx, "inquiry_ack", mail.Message{
		To:      in.Email,
		ToName:  in.Name,
		Subject: m.tr.T(in.Locale, "email_inquiry_ack_subject", data),
		Body:    m.tr.T(in.Locale, "email_inquiry_ack_body", data),
	}, model.JSONMap{"inquiry_id": in.ID})
}

// StaffInquiryAlert is always written in French for the shop team.
func (m *Mailer) StaffInquiryAlert(ctx context.Context, in *model.ContactInquiry) error {
	if m.staffInbox == "" {
		return nil
	}
	phone := "-"
	if in.Phone != nil && *in.Phone != "" {
		phone = *in.Phone
	}
	data := map[string]any{
		"ID":       in.ID,
		"Type":     in.InquiryType,
		"Priority": in.Priority,
		"Name":     in.Name,
		"Email":    in.Email,
		"Phone":    phone,
		"Subject":  in.Subject,
		"Message":  in.Message,
	}
	return m.send(ctx, "staff_inquiry_alert", mail.Message{
		To:      m.staffInbox,
		ReplyTo: in.Email,
		Subject: m.tr.T(i18n.French, "email_staff_inquiry_subject", data),
		Body:    m.tr.T(i18n.French, "email_staff_inquiry_body", data),
	}, model.JSONMap{"inquiry_id": in.ID})
}
