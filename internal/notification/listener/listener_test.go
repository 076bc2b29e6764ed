package listener

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/fekuna/cave-storefront/internal/model"
	"github.com/fekuna/cave-storefront/internal/order"
	"github.com/fekuna/cave-storefront/pkg/logger"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedReader struct {
	messages []kafka.Message
	errs     []error
	cancel   context.CancelFunc
}

func (r *scriptedReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.errs) > 0 {
		err := r.errs[0]
		r.errs = r.errs[1:]
		return kafka.Message{}, err
	}
	if len(r.messages) == 0 {
		r.cancel()
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	m := r.messages[0]
	r.messages = r.messages[1:]
	return m, nil
}

type recordingMailer struct {
	confirmations []string
	payments      []string
}

func (m *recordingMailer) OrderConfirmation(_ context.Context, p order.OrderPayload) error {
	m.confirmations = append(m.confirmations, p.OrderNumber)
	return nil
}

func (m *recordingMailer) PaymentConfirmation(_ context.Context, p order.OrderPayload) error {
	m.payments = append(m.payments, p.OrderNumber)
	return errors.New("sendgrid down")
}

func message(t *testing.T, eventType, number string) kafka.Message {
	t.Helper()
	o := &model.Order{BaseModel: model.BaseModel{ID: "o-" + number}, OrderNumber: number}
	data, err := json.Marshal(order.NewEvent(eventType, o))
	require.NoError(t, err)
	return kafka.Message{Value: data}
}

func TestListenerDispatchesByEventType(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &scriptedReader{
		errs: []error{errors.New("broker unavailable")},
		messages: []kafka.Message{
			message(t, order.EventOrderCreated, "CMD-1"),
			{Value: []byte("not json")},
			message(t, "InventoryAdjusted", "CMD-X"),
			message(t, order.EventOrderPaid, "CMD-1"),
			message(t, order.EventOrderCreated, "CMD-2"),
		},
		cancel: cancel,
	}
	mailer := &recordingMailer{}
	l := NewOrderListener(reader, mailer, logger.NewNop())
	l.retryDelay = time.Millisecond

	done := make(chan struct{})
	go func() {
		l.Start(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not stop")
	}
	assert.Equal(t, []string{"CMD-1", "CMD-2"}, mailer.confirmations)
	assert.Equal(t, []string{"CMD-1"}, mailer.payments)
}
