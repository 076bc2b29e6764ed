package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/cave-storefront/internal/apperror"
	"github.com/fekuna/cave-storefront/internal/cart"
	"github.com/fekuna/cave-storefront/internal/model"
	"github.com/fekuna/cave-storefront/internal/order"
	"github.com/fekuna/cave-storefront/internal/order/dto"
	"github.com/fekuna/cave-storefront/internal/vat"
	"github.com/fekuna/cave-storefront/pkg/i18n"
	"github.com/fekuna/cave-storefront/pkg/logger"
	"github.com/fekuna/cave-storefront/pkg/payment"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CartReader interface {
	FindLines(ctx context.Context, customerID string) ([]model.CartLine, error)
}

type PaymentProvider interface {
	CreatePayment(ctx context.Context, req *payment.CreateRequest) (*payment.Payment, error)
	GetPayment(ctx context.Context, id string) (*payment.Payment, error)
}

type Publisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

type SyncRecorder interface {
	Failure(ctx context.Context, platform, operation string, err error, details model.JSONMap) *model.SyncLog
}

type Config struct {
	Shipping    vat.ShippingRules
	ShopName    string
	RedirectURL string
	WebhookURL  string
}

type orderUseCase struct {
	repo      order.Repository
	carts     CartReader
	payments  PaymentProvider
	publisher Publisher
	syncLogs  SyncRecorder
	cfg       Config
	logger    logger.ZapLogger

	now            func() time.Time
	publishTimeout time.Duration
}

// defaultPublishTimeout bounds how long checkout waits on the broker.
const defaultPublishTimeout = 2 * time.Second

// NewOrderUseCase wires checkout. payments and publisher may be nil; orders
// are then created without a payment URL or event.
func NewOrderUseCase(
	repo order.Repository,
	carts CartReader,
	payments PaymentProvider,
	publisher Publisher,
	syncLogs SyncRecorder,
	cfg Config,
	log logger.ZapLogger,
) order.UseCase {
	return &orderUseCase{
		repo:      repo,
		carts:     carts,
		payments:  payments,
		publisher: publisher,
		syncLogs:  syncLogs,
		cfg:       cfg,
		logger:    log,

		now:            time.Now,
		publishTimeout: defaultPublishTimeout,
	}
}

// OrderNumber renders CMD-YYYYMMDD-XXXXXX with six upper-case hex chars.
func OrderNumber(at time.Time, id uuid.UUID) string {
	hex := strings.ToUpper(strings.ReplaceAll(id.String(), "-", ""))
	return fmt.Sprintf("CMD-%s-%s", at.UTC().Format("20060102"), hex[:6])
}

func blockedLines(s cart.Summary) []map[string]any {
	var blocked []map[string]any
	for _, l := range s.Lines {
		if l.Orderable() {
			continue
		}
		entry := map[string]any{
			"item_id":    l.ID,
			"product_id": l.ProductID,
			"quantity":   l.Quantity,
			"warnings":   l.Warnings,
		}
		if l.Product != nil {
			entry["available"] = l.Product.StockQuantity
		}
		blocked = append(blocked, entry)
	}
	return blocked
}

func (uc *orderUseCase) PlaceOrder(ctx context.Context, input *dto.PlaceOrderInput) (*model.Order, error) {
	lines, err := uc.carts.FindLines(ctx, input.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(lines) == 0 {
		return nil, apperror.ErrCartEmpty
	}

	summary := cart.Summarize(lines)
	if blocked := blockedLines(summary); len(blocked) > 0 {
		return nil, apperror.ErrCartNotOrderable.WithDetails(map[string]any{"items": blocked})
	}

	shipping, err := uc.cfg.Shipping.Cost(summary.SubtotalCents, input.Country)
	if err != nil {
		return nil, err
	}
	breakdown, err := vat.Calculate(summary.SubtotalCents, shipping, input.Country)
	if err != nil {
		return nil, err
	}
	if err := vat.Verify(input.Totals, breakdown); err != nil {
		uc.logger.Info("order totals rejected",
			zap.String("customer_id", input.CustomerID),
			zap.Int64("submitted_total", input.Totals.TotalCents),
			zap.Int64("computed_total", breakdown.TotalCents),
		)
		return nil, err
	}

	now := uc.now()
	id := uuid.New()
	locale := input.Locale
	if locale == "" {
		locale = i18n.DefaultLocale
	}
	o := &model.Order{
		BaseModel:      model.BaseModel{ID: id.String(), CreatedAt: now, UpdatedAt: now},
		OrderNumber:    OrderNumber(now, id),
		CustomerID:     input.CustomerID,
		Email:          strings.TrimSpace(input.Email),
		Locale:         locale,
		Status:         model.OrderStatusPending,
		PaymentStatus:  model.PaymentStatusUnpaid,
		Country:        breakdown.Country,
		VATRate:        breakdown.Rate,
		SubtotalCents:  breakdown.SubtotalCents,
		VATCents:       breakdown.VATCents,
		ShippingCents:  breakdown.ShippingCents,
		TotalCents:     breakdown.TotalCents,
		ShippingName:   strings.TrimSpace(input.Shipping.Name),
		ShippingLine1:  strings.TrimSpace(input.Shipping.Line1),
		ShippingLine2:  strings.TrimSpace(input.Shipping.Line2),
		ShippingPostal: strings.TrimSpace(input.Shipping.PostalCode),
		ShippingCity:   strings.TrimSpace(input.Shipping.City),
		ShippingPhone:  strings.TrimSpace(input.Shipping.Phone),
	}
	for _, l := range summary.Lines {
		o.Items = append(o.Items, model.OrderItem{
			ProductID:      l.ProductID,
			SKU:            l.Product.SKU,
			Name:           l.Product.Name(locale),
			Quantity:       l.Quantity,
			UnitPriceCents: l.Product.PriceCents,
			LineTotalCents: l.LineTotalCents,
		})
	}

	if err := uc.repo.Create(ctx, o); err != nil {
		var appErr *apperror.Error
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, fmt.Errorf("create order: %w", err)
	}
	uc.logger.Info("order created",
		zap.String("order_id", o.ID),
		zap.String("order_number", o.OrderNumber),
		zap.Int64("total_cents", o.TotalCents),
	)

	uc.attachPayment(ctx, o)
	uc.publish(ctx, order.EventOrderCreated, o)
	return o, nil
}

// attachPayment leaves the order pending without a URL when the provider
// fails; the failure is recorded for staff follow-up.
func (uc *orderUseCase) attachPayment(ctx context.Context, o *model.Order) {
	if uc.payments == nil {
		return
	}
	p, err := uc.payments.CreatePayment(ctx, &payment.CreateRequest{
		Amount:      payment.AmountFromCents(o.TotalCents),
		Description: fmt.Sprintf("%s %s", uc.cfg.ShopName, o.OrderNumber),
		RedirectURL: uc.cfg.RedirectURL + "?order=" + o.ID,
		WebhookURL:  uc.cfg.WebhookURL,
		Locale:      mollieLocale(o.Locale),
		Metadata:    map[string]string{"order_id": o.ID, "order_number": o.OrderNumber},
	})
	if err != nil {
		uc.logger.Error("failed to create payment", zap.String("order_id", o.ID), zap.Error(err))
		uc.recordFailure(ctx, "create_payment", err, model.JSONMap{"order_id": o.ID})
		return
	}

	url := p.CheckoutURL()
	if err := uc.repo.SetPayment(ctx, o.ID, p.ID, url); err != nil {
		uc.logger.Error("failed to store payment reference",
			zap.String("order_id", o.ID), zap.String("payment_id", p.ID), zap.Error(err))
		uc.recordFailure(ctx, "store_payment", err, model.JSONMap{"order_id": o.ID, "payment_id": p.ID})
		return
	}
	o.PaymentID = &p.ID
	if url != "" {
		o.PaymentURL = &url
	}
}

func mollieLocale(locale string) string {
	if locale == "en" {
		return "en_GB"
	}
	return "fr_FR"
}

func (uc *orderUseCase) recordFailure(ctx context.Context, operation string, err error, details model.JSONMap) {
	if uc.syncLogs != nil {
		uc.syncLogs.Failure(ctx, model.PlatformPayment, operation, err, details)
	}
}

func (uc *orderUseCase) publish(ctx context.Context, eventType string, o *model.Order) {
	if uc.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, uc.publishTimeout)
	defer cancel()
	if err := uc.publisher.PublishJSON(ctx, o.ID, order.NewEvent(eventType, o)); err != nil {
		uc.logger.Error("failed to publish order event",
			zap.String("event_type", eventType),
			zap.String("order_id", o.ID),
			zap.Error(err),
		)
	}
}

func (uc *orderUseCase) ListOrders(ctx context.Context, customerID string, page, pageSize int) ([]model.Order, int, error) {
	orders, count, err := uc.repo.FindByCustomer(ctx, customerID, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	return orders, count, nil
}

func (uc *orderUseCase) GetOrder(ctx context.Context, customerID, orderID string) (*model.Order, error) {
	if _, err := uuid.Parse(orderID); err != nil {
		return nil, apperror.ErrOrderNotFound
	}
	o, err := uc.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if o == nil || o.CustomerID != customerID {
		return nil, apperror.ErrOrderNotFound
	}
	return o, nil
}

// HandlePaymentWebhook re-reads the payment from the provider and applies
// its status. Repeated notifications for the same status are no-ops.
func (uc *orderUseCase) HandlePaymentWebhook(ctx context.Context, paymentID string) error {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return apperror.ErrInvalidRequest
	}
	if uc.payments == nil {
		return apperror.Upstream(errors.New("payment provider not configured"), "")
	}

	p, err := uc.payments.GetPayment(ctx, paymentID)
	if err != nil {
		uc.logger.Error("failed to fetch payment", zap.String("payment_id", paymentID), zap.Error(err))
		uc.recordFailure(ctx, "webhook", err, model.JSONMap{"payment_id": paymentID})
		return apperror.Upstream(err, "")
	}

	var o *model.Order
	if id := p.OrderID(); id != "" {
		o, err = uc.repo.FindByID(ctx, id)
	} else {
		o, err = uc.repo.FindByPaymentID(ctx, p.ID)
	}
	if err != nil {
		return fmt.Errorf("find order for payment: %w", err)
	}
	if o == nil {
		uc.logger.Warn("payment webhook for unknown order", zap.String("payment_id", p.ID))
		return nil
	}

	switch p.Status {
	case payment.StatusPaid:
		changed, err := uc.repo.MarkPaid(ctx, o.ID)
		if err != nil {
			return fmt.Errorf("mark order paid: %w", err)
		}
		if changed {
			o.Status = model.OrderStatusPaid
			o.PaymentStatus = model.PaymentStatusPaid
			uc.logger.Info("order paid", zap.String("order_id", o.ID))
			uc.publish(ctx, order.EventOrderPaid, o)
		}
	case payment.StatusFailed, payment.StatusCanceled, payment.StatusExpired:
		status := model.PaymentStatusFailed
		if p.Status == payment.StatusExpired {
			status = model.PaymentStatusExpired
		}
		changed, err := uc.repo.CancelAndRestock(ctx, o.ID, status)
		if err != nil {
			return fmt.Errorf("cancel order: %w", err)
		}
		if changed {
			uc.logger.Info("order cancelled after payment failure",
				zap.String("order_id", o.ID), zap.String("payment_status", p.Status))
		}
	default:
		uc.logger.Debug("payment still open", zap.String("order_id", o.ID), zap.String("payment_status", p.Status))
	}
	return nil
}
