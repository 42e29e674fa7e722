package orders

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/farmconnect-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/farmconnect-backend/pkg/errors"
	"github.com/angelmondragon/farmconnect-backend/pkg/logger"
	"github.com/angelmondragon/farmconnect-backend/pkg/models"
	"github.com/angelmondragon/farmconnect-backend/pkg/pagination"
	"github.com/angelmondragon/farmconnect-backend/pkg/store"
	"github.com/angelmondragon/farmconnect-backend/pkg/store/storetest"
)

type transitionRecorder struct {
	edges []string
}

func (r *transitionRecorder) IncTransition(from, to string) {
	r.edges = append(r.edges, from+"->"+to)
}

func order(id, customerID, farmerID string, placed time.Time, status enums.OrderStatus, items ...models.CartItem) models.Order {
	return models.Order{
		ID:              id,
		CustomerID:      customerID,
		FarmerID:        farmerID,
		Items:           items,
		Total:           models.SumLines(items),
		Status:          status,
		OrderDate:       placed,
		PaymentMethod:   enums.PaymentMethodCOD,
		DeliveryAddress: "Mumbai",
	}
}

func newOrders(t *testing.T) (*store.Store, Service, *transitionRecorder, *bytes.Buffer) {
	t.Helper()
	st := storetest.New(t, func(snap *models.Snapshot) {
		farmer := storetest.Farmer("f1", "Green Valley Farm")
		other := storetest.Farmer("f2", "Hill Dairy")
		snap.Users = append(snap.Users, farmer, other, storetest.Consumer("c1", "Rajesh"), storetest.Consumer("c2", "Meera"))
		tomatoes := storetest.Product("p1", farmer, 40, 8)
		snap.Products = append(snap.Products, tomatoes)
		line := models.CartItem{ID: "l1", CustomerID: "c1", ProductID: "p1", Product: tomatoes, Quantity: 2}
		snap.Orders = append(snap.Orders,
			order("o1", "c1", "f1", storetest.Now.Add(-2*time.Hour), enums.OrderStatusPending, line),
			order("o2", "c1", "f2", storetest.Now.Add(-time.Hour), enums.OrderStatusConfirmed),
			order("o3", "c2", "f1", storetest.Now, enums.OrderStatusShipped),
		)
	})
	metrics := &transitionRecorder{}
	logs := &bytes.Buffer{}
	svc, err := NewService(ServiceParams{
		Store:   st,
		Metrics: metrics,
		Logger:  logger.New(logger.Options{ServiceName: "test", Output: logs}),
		Clock:   func() time.Time { return storetest.Now },
	})
	require.NoError(t, err)
	return st, svc, metrics, logs
}

func orderIDs(items []models.Order) []string {
	ids := make([]string, 0, len(items))
	for _, o := range items {
		ids = append(ids, o.ID)
	}
	return ids
}

func TestListUsesCallerRole(t *testing.T) {
	_, svc, _, _ := newOrders(t)
	ctx := context.Background()

	res, err := svc.List(ctx, ListParams{UserID: "f1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"o3", "o1"}, orderIDs(res.Items))

	res, err = svc.List(ctx, ListParams{UserID: "c1", Role: enums.UserRoleConsumer})
	require.NoError(t, err)
	assert.Equal(t, []string{"o2", "o1"}, orderIDs(res.Items))

	_, err = svc.List(ctx, ListParams{UserID: "c1", Role: enums.UserRoleFarmer})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = svc.List(ctx, ListParams{UserID: "ghost"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListPages(t *testing.T) {
	_, svc, _, _ := newOrders(t)
	first, err := svc.List(context.Background(), ListParams{UserID: "f1", Page: pagination.Params{Limit: 1}})
	require.NoError(t, err)
	assert.Equal(t, []string{"o3"}, orderIDs(first.Items))
	require.NotEmpty(t, first.Cursor)

	second, err := svc.List(context.Background(), ListParams{UserID: "f1", Page: pagination.Params{Limit: 1, Cursor: first.Cursor}})
	require.NoError(t, err)
	assert.Equal(t, []string{"o1"}, orderIDs(second.Items))
	assert.Empty(t, second.Cursor)
}

func TestGetIsLimitedToParties(t *testing.T) {
	_, svc, _, _ := newOrders(t)
	o, err := svc.Get(context.Background(), "f1", "o1")
	require.NoError(t, err)
	assert.Equal(t, "c1", o.CustomerID)

	_, err = svc.Get(context.Background(), "c2", "o1")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestFarmerWalksOrderToDelivered(t *testing.T) {
	st, svc, metrics, logs := newOrders(t)
	ctx := context.Background()

	for _, next := range []enums.OrderStatus{enums.OrderStatusConfirmed, enums.OrderStatusShipped, enums.OrderStatusDelivered} {
		o, err := svc.UpdateStatus(ctx, "f1", "o1", next)
		require.NoError(t, err, next)
		assert.Equal(t, next, o.Status)
		require.NotNil(t, o.UpdatedAt)
	}

	snap := storetest.Snapshot(t, st)
	delivered := snap.Orders[0]
	require.NotNil(t, delivered.DeliveryDate)
	assert.True(t, delivered.DeliveryDate.Equal(storetest.Now))
	assert.Equal(t, 8, snap.Products[0].Inventory)

	require.Len(t, snap.Notifications, 3)
	last := snap.Notifications[2]
	assert.Equal(t, "c1", last.UserID)
	assert.Equal(t, "Order Status Updated", last.Title)
	assert.Equal(t, "Your order #o1 is now delivered", last.Message)
	assert.Equal(t, "/orders", last.ActionURL)

	assert.Equal(t, []string{"pending->confirmed", "confirmed->shipped", "shipped->delivered"}, metrics.edges)
	assert.Contains(t, logs.String(), "order.status_changed")
}

func TestIllegalTransitionsAreStateConflicts(t *testing.T) {
	st, svc, metrics, _ := newOrders(t)
	ctx := context.Background()

	_, err := svc.UpdateStatus(ctx, "f1", "o1", enums.OrderStatusDelivered)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	_, err = svc.UpdateStatus(ctx, "f1", "o3", enums.OrderStatusCancelled)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "shipped orders cannot be cancelled")

	_, err = svc.UpdateStatus(ctx, "f1", "o1", "returned")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	assert.Empty(t, metrics.edges)
	assert.Empty(t, storetest.Snapshot(t, st).Notifications)
}

func TestConsumerMayOnlyCancelPending(t *testing.T) {
	st, svc, _, _ := newOrders(t)
	ctx := context.Background()

	_, err := svc.UpdateStatus(ctx, "c1", "o1", enums.OrderStatusConfirmed)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = svc.UpdateStatus(ctx, "c1", "o2", enums.OrderStatusCancelled)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = svc.UpdateStatus(ctx, "c2", "o1", enums.OrderStatusCancelled)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	o, err := svc.UpdateStatus(ctx, "c1", "o1", enums.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, o.Status)
	assert.Nil(t, o.DeliveryDate)

	snap := storetest.Snapshot(t, st)
	assert.Equal(t, 10, snap.Products[0].Inventory, "cancelled quantity returns to stock")
	assert.True(t, snap.Orders[0].Total.Equal(decimal.NewFromInt(80)))

	_, err = svc.UpdateStatus(ctx, "c1", "o1", enums.OrderStatusCancelled)
	assert.Error(t, err, "cancel is terminal")
}
