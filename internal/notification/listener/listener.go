package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/cave-storefront/internal/order"
	"github.com/fekuna/cave-storefront/pkg/logger"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type OrderMailer interface {
	OrderConfirmation(ctx context.Context, p order.OrderPayload) error
	PaymentConfirmation(ctx context.Context, p order.OrderPayload) error
}

type OrderListener struct {
	consumer MessageReader
	mailer   OrderMailer
	logger   logger.ZapLogger

	retryDelay time.Duration
}

func NewOrderListener(consumer MessageReader, mailer OrderMailer, log logger.ZapLogger) *OrderListener {
	return &OrderListener{
		consumer:   consumer,
		mailer:     mailer,
		logger:     log,
		retryDelay: time.Second,
	}
}

func (l *OrderListener) Start(ctx context.Context) {
	l.logger.Info("Starting order notification listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping order notification listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				time.Sleep(l.retryDelay)
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

// processMessage never retries; failed sends are recorded by the mailer.
func (l *OrderListener) processMessage(ctx context.Context, value []byte) {
	var event order.Event
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	var err error
	switch event.EventType {
	case order.EventOrderCreated:
		err = l.mailer.OrderConfirmation(ctx, event.Payload)
	case order.EventOrderPaid:
		err = l.mailer.PaymentConfirmation(ctx, event.Payload)
	default:
		return
	}
	if err != nil {
		l.logger.Error("Failed to notify customer",
			zap.String("event_type", event.EventType),
			zap.String("order_id", event.Payload.ID),
			zap.Error(err),
		)
		return
	}
	l.logger.Info("Customer notified",
		zap.String("event_type", event.EventType),
		zap.String("order_id", event.Payload.ID),
	)
}
