package checkout

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/farmconnect-backend/internal/cart"
	"github.com/angelmondragon/farmconnect-backend/internal/notifications"
	"github.com/angelmondragon/farmconnect-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/farmconnect-backend/pkg/errors"
	"github.com/angelmondragon/farmconnect-backend/pkg/logger"
	"github.com/angelmondragon/farmconnect-backend/pkg/models"
	"github.com/angelmondragon/farmconnect-backend/pkg/store"
	"github.com/angelmondragon/farmconnect-backend/pkg/store/storetest"
)

type recordingMetrics struct {
	created  int
	failures map[string]int
}

func (m *recordingMetrics) AddOrdersCreated(n int) { m.created += n }
func (m *recordingMetrics) IncCheckoutFailure(code string) {
	if m.failures == nil {
		m.failures = map[string]int{}
	}
	m.failures[code]++
}

func line(id, customerID string, p models.Product, qty int) models.CartItem {
	return models.CartItem{ID: id, CustomerID: customerID, ProductID: p.ID, Product: p, Quantity: qty, AddedAt: storetest.Now}
}

func newCheckout(t *testing.T, prepare func(*models.Snapshot)) (*store.Store, Service, *recordingMetrics, *bytes.Buffer) {
	t.Helper()
	st := storetest.New(t, func(snap *models.Snapshot) {
		f1 := storetest.Farmer("f1", "Green Valley Farm")
		f2 := storetest.Farmer("f2", "Hill Dairy")
		snap.Users = append(snap.Users, f1, f2, storetest.Consumer("c1", "Rajesh"), storetest.Consumer("c2", "Meera"))
		p1 := storetest.Product("p1", f1, 45, 50)
		p2 := storetest.Product("p2", f1, 25, 30)
		p3 := storetest.Product("p3", f2, 60, 5)
		snap.Products = append(snap.Products, p1, p2, p3)
		snap.Cart = append(snap.Cart,
			line("l1", "c1", p1, 2),
			line("l2", "c1", p3, 1),
			line("l3", "c2", p1, 4),
			line("l4", "c1", p2, 1),
		)
		if prepare != nil {
			prepare(snap)
		}
	})
	metrics := &recordingMetrics{}
	buf := &bytes.Buffer{}
	svc, err := NewService(ServiceParams{
		Store:   st,
		Metrics: metrics,
		Logger:  logger.New(logger.Options{ServiceName: "test", Output: buf}),
		Clock:   func() time.Time { return storetest.Now },
	})
	require.NoError(t, err)
	return st, svc, metrics, buf
}

var validInput = Input{PaymentMethod: enums.PaymentMethodUPI, DeliveryAddress: " Bandra West, Mumbai ", Notes: "ring twice"}

func TestExecuteSplitsCartPerFarmer(t *testing.T) {
	st, svc, metrics, logs := newCheckout(t, nil)

	created, err := svc.Execute(context.Background(), "c1", validInput)
	require.NoError(t, err)
	require.Len(t, created, 2)

	first, second := created[0], created[1]
	assert.Equal(t, "f1", first.FarmerID)
	assert.Equal(t, "115", first.Total.String())
	require.Len(t, first.Items, 2)
	assert.Equal(t, "p1", first.Items[0].ProductID)
	assert.Equal(t, "p2", first.Items[1].ProductID)
	assert.Equal(t, "f2", second.FarmerID)
	assert.Equal(t, "60", second.Total.String())

	for _, o := range created {
		assert.Equal(t, enums.OrderStatusPending, o.Status)
		assert.Equal(t, "c1", o.CustomerID)
		assert.Equal(t, enums.PaymentMethodUPI, o.PaymentMethod)
		assert.Equal(t, "Bandra West, Mumbai", o.DeliveryAddress)
		assert.Equal(t, "ring twice", o.Notes)
		assert.True(t, o.OrderDate.Equal(storetest.Now))
		assert.Nil(t, o.DeliveryDate)
	}

	snap := storetest.Snapshot(t, st)
	assert.Len(t, snap.Orders, 2)
	require.Len(t, snap.Cart, 1, "only the consumed lines are removed")
	assert.Equal(t, "l3", snap.Cart[0].ID)
	assert.Equal(t, 48, snap.Products[0].Inventory)
	assert.Equal(t, 29, snap.Products[1].Inventory)
	assert.Equal(t, 4, snap.Products[2].Inventory)

	require.Len(t, snap.Notifications, 2)
	assert.Equal(t, "f1", snap.Notifications[0].UserID)
	assert.Equal(t, enums.NotificationTypeOrder, snap.Notifications[0].Type)
	assert.Equal(t, "New Order Received", snap.Notifications[0].Title)
	assert.Equal(t, "You have received a new order worth ₹115", snap.Notifications[0].Message)
	assert.Equal(t, "/farmer-dashboard", snap.Notifications[0].ActionURL)
	assert.Equal(t, "You have received a new order worth ₹60", snap.Notifications[1].Message)

	assert.Equal(t, 2, metrics.created)
	assert.Contains(t, logs.String(), "checkout.completed")
}

func TestExecuteIsAllOrNothingOnShortStock(t *testing.T) {
	st, svc, metrics, _ := newCheckout(t, func(snap *models.Snapshot) {
		snap.Products[2].Inventory = 0
	})

	_, err := svc.Execute(context.Background(), "c1", validInput)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	snap := storetest.Snapshot(t, st)
	assert.Empty(t, snap.Orders)
	assert.Len(t, snap.Cart, 4)
	assert.Empty(t, snap.Notifications)
	assert.Equal(t, 50, snap.Products[0].Inventory, "earlier reservations roll back")
	assert.Equal(t, 1, metrics.failures["CONFLICT"])
	assert.Zero(t, metrics.created)
}

func TestExecuteRejectsDelistedProducts(t *testing.T) {
	_, svc, _, _ := newCheckout(t, func(snap *models.Snapshot) {
		snap.Products = snap.Products[:2]
	})
	_, err := svc.Execute(context.Background(), "c1", validInput)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestExecuteValidation(t *testing.T) {
	_, svc, metrics, _ := newCheckout(t, nil)
	ctx := context.Background()

	_, err := svc.Execute(ctx, "c1", Input{PaymentMethod: enums.PaymentMethodCOD})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "missing address")

	_, err = svc.Execute(ctx, "c1", Input{PaymentMethod: "bitcoin", DeliveryAddress: "x"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "payment method")

	_, err = svc.Execute(ctx, "f1", validInput)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = svc.Execute(ctx, "c1", validInput)
	require.NoError(t, err)
	_, err = svc.Execute(ctx, "c1", validInput)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, "cart is empty", typed.Message())

	assert.Equal(t, 3, metrics.failures["VALIDATION_ERROR"])
}

func TestGroupByFarmerKeepsFirstAppearanceOrder(t *testing.T) {
	fa := storetest.Farmer("fa", "A")
	fb := storetest.Farmer("fb", "B")
	groups := GroupByFarmer([]models.CartItem{
		line("1", "c", storetest.Product("x", fb, 10, 9), 1),
		line("2", "c", storetest.Product("y", fa, 5, 9), 3),
		line("3", "c", storetest.Product("z", fb, 1, 9), 2),
	})
	require.Len(t, groups, 2)
	assert.Equal(t, "fb", groups[0].FarmerID)
	assert.Equal(t, "12", groups[0].Total.String())
	assert.Equal(t, "fa", groups[1].FarmerID)
	assert.Equal(t, "15", groups[1].Total.String())
}

func TestSeededConsumerChecksOutTwoTomatoes(t *testing.T) {
	ctx := context.Background()
	st := storetest.New(t, nil)
	seeded, err := store.Seed(ctx, st, func(password string) (string, error) { return "plain:" + password, nil }, storetest.Now)
	require.NoError(t, err)
	require.True(t, seeded)

	carts, err := cart.NewService(cart.ServiceParams{Store: st, Clock: func() time.Time { return storetest.Now }})
	require.NoError(t, err)
	inbox, err := notifications.NewService(st)
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		Store:   st,
		Metrics: &recordingMetrics{},
		Logger:  logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}}),
		Clock:   func() time.Time { return storetest.Now },
	})
	require.NoError(t, err)

	_, err = carts.Add(ctx, "2", "1", 2)
	require.NoError(t, err)

	created, err := svc.Execute(ctx, "2", Input{DeliveryAddress: "X", PaymentMethod: enums.PaymentMethodCOD})
	require.NoError(t, err)
	require.Len(t, created, 1)
	order := created[0]
	assert.Equal(t, "1", order.FarmerID)
	assert.Equal(t, "2", order.CustomerID)
	assert.Equal(t, "90", order.Total.String())
	assert.Equal(t, enums.OrderStatusPending, order.Status)

	view, err := carts.Get(ctx, "2")
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	unread, err := inbox.UnreadCount(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	listed, err := inbox.List(ctx, notifications.ListParams{UserID: "1", UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, listed.Items, 1)
	assert.Equal(t, enums.NotificationTypeOrder, listed.Items[0].Type)
}
