package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/angelmondragon/farmconnect-backend/internal/cart"
	"github.com/angelmondragon/farmconnect-backend/internal/notifications"
	"github.com/angelmondragon/farmconnect-backend/internal/orders"
	"github.com/angelmondragon/farmconnect-backend/internal/products"
	"github.com/angelmondragon/farmconnect-backend/internal/users"
	"github.com/angelmondragon/farmconnect-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/farmconnect-backend/pkg/errors"
	"github.com/angelmondragon/farmconnect-backend/pkg/logger"
	"github.com/angelmondragon/farmconnect-backend/pkg/models"
	"github.com/angelmondragon/farmconnect-backend/pkg/store"
)

const (
	newOrderTitle     = "New Order Received"
	newOrderActionURL = "/farmer-dashboard"
)

// Service turns a consumer's cart into per-farmer orders.
type Service interface {
	Execute(ctx context.Context, customerID string, input Input) ([]models.Order, error)
}

// Input is the delivery and payment data applied to every split order.
type Input struct {
	PaymentMethod   enums.PaymentMethod `json:"paymentMethod" validate:"required,oneof=cod upi card netbanking"`
	DeliveryAddress string              `json:"deliveryAddress" validate:"required,max=300"`
	Notes           string              `json:"notes,omitempty" validate:"max=1000"`
}

type checkoutMetrics interface {
	AddOrdersCreated(n int)
	IncCheckoutFailure(code string)
}

// ServiceParams bundles the checkout dependencies.
type ServiceParams struct {
	Store   store.Transactor
	Metrics checkoutMetrics
	Logger  *logger.Logger
	Clock   func() time.Time
}

type service struct {
	store   store.Transactor
	metrics checkoutMetrics
	logg    *logger.Logger
	clock   func() time.Time
	tracer  trace.Tracer
}

func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if params.Metrics == nil {
		return nil, fmt.Errorf("metrics are required")
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	if params.Clock == nil {
		params.Clock = time.Now
	}
	return &service{
		store:   params.Store,
		metrics: params.Metrics,
		logg:    params.Logger,
		clock:   params.Clock,
		tracer:  otel.Tracer("github.com/angelmondragon/farmconnect-backend/internal/checkout"),
	}, nil
}

// Execute runs the whole checkout in one store transaction: inventory is
// decremented, one pending order is created per farmer, exactly the consumed
// cart lines are removed, and every farmer is notified. Any failure leaves
// the store untouched.
func (s *service) Execute(ctx context.Context, customerID string, input Input) ([]models.Order, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.execute", trace.WithAttributes(attribute.String("customer.id", customerID)))
	defer span.End()

	created, err := s.execute(ctx, customerID, input)
	if err != nil {
		code := pkgerrors.CodeOf(err)
		s.metrics.IncCheckoutFailure(string(code))
		span.SetStatus(codes.Error, string(code))
		return nil, err
	}

	s.metrics.AddOrdersCreated(len(created))
	span.SetAttributes(attribute.Int("orders.created", len(created)))
	ctx = s.logg.WithFields(ctx, map[string]any{"customer_id": customerID, "orders": len(created)})
	s.logg.Info(ctx, "checkout.completed")
	return created, nil
}

func (s *service) execute(ctx context.Context, customerID string, input Input) ([]models.Order, error) {
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unsupported payment method %q", input.PaymentMethod)
	}
	address := strings.TrimSpace(input.DeliveryAddress)
	if address == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery address is required")
	}
	notes := strings.TrimSpace(input.Notes)
	now := s.clock().UTC()

	var created []models.Order
	err := s.store.Update(ctx, func(snap *models.Snapshot) error {
		created = nil

		customer, ok := users.NewRepository(snap).FindByID(customerID)
		if !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		if !customer.IsConsumer() {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only consumers can place orders")
		}

		cartRepo := cart.NewRepository(snap)
		lines := cartRepo.ForCustomer(customerID)
		if len(lines) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		catalog := products.NewRepository(snap)
		for _, line := range lines {
			if err := reserveLine(catalog, line); err != nil {
				return err
			}
		}

		orderRepo := orders.NewRepository(snap)
		notifier := notifications.NewRepository(snap)
		consumed := make([]string, 0, len(lines))
		for _, group := range GroupByFarmer(lines) {
			order := orderRepo.Create(models.Order{
				ID:              uuid.NewString(),
				CustomerID:      customerID,
				FarmerID:        group.FarmerID,
				Items:           group.Items,
				Total:           group.Total,
				Status:          enums.OrderStatusPending,
				OrderDate:       now,
				PaymentMethod:   input.PaymentMethod,
				DeliveryAddress: address,
				Notes:           notes,
			})
			notifier.Create(notifications.NewNotification{
				UserID:    group.FarmerID,
				Type:      enums.NotificationTypeOrder,
				Title:     newOrderTitle,
				Message:   fmt.Sprintf("You have received a new order worth ₹%s", order.Total.String()),
				ActionURL: newOrderActionURL,
			}, now)
			for _, item := range group.Items {
				consumed = append(consumed, item.ID)
			}
			created = append(created, order)
		}
		cartRepo.RemoveIDs(consumed...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func reserveLine(catalog *products.Repository, line models.CartItem) error {
	product, ok := catalog.FindByID(line.ProductID)
	if !ok {
		return pkgerrors.Newf(pkgerrors.CodeConflict, "%s is no longer listed", line.Product.Name).
			WithDetails(map[string]any{"productId": line.ProductID})
	}
	if !product.IsAvailable {
		return pkgerrors.Newf(pkgerrors.CodeConflict, "%s is not available", product.Name).
			WithDetails(map[string]any{"productId": product.ID})
	}
	_, err := catalog.Reserve(line.ProductID, line.Quantity)
	return err
}

// FarmerGroup is the slice of a cart that becomes one order.
type FarmerGroup struct {
	FarmerID string
	Items    []models.CartItem
	Total    decimal.Decimal
}

// GroupByFarmer partitions lines by the owning farmer, keeping the order in
// which each farmer first appears and each farmer's line order.
func GroupByFarmer(lines []models.CartItem) []FarmerGroup {
	index := make(map[string]int)
	groups := make([]FarmerGroup, 0)
	for _, line := range lines {
		farmerID := line.Product.FarmerID
		i, ok := index[farmerID]
		if !ok {
			i = len(groups)
			index[farmerID] = i
			groups = append(groups, FarmerGroup{FarmerID: farmerID})
		}
		groups[i].Items = append(groups[i].Items, line)
	}
	for i := range groups {
		groups[i].Total = models.SumLines(groups[i].Items)
	}
	return groups
}
