package cart

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/farmconnect-backend/pkg/errors"
	"github.com/angelmondragon/farmconnect-backend/pkg/models"
	"github.com/angelmondragon/farmconnect-backend/pkg/store"
	"github.com/angelmondragon/farmconnect-backend/pkg/store/storetest"
)

var defaultPricing = Pricing{
	FreeDeliveryThreshold: decimal.NewFromInt(500),
	DeliveryFee:           decimal.NewFromInt(50),
}

func newCart(t *testing.T) (*store.Store, Service) {
	t.Helper()
	st := storetest.New(t, func(snap *models.Snapshot) {
		farmer := storetest.Farmer("f1", "Green Valley Farm")
		snap.Users = append(snap.Users, farmer, storetest.Consumer("c1", "Rajesh"), storetest.Consumer("c2", "Meera"))
		hidden := storetest.Product("p3", farmer, 10, 10)
		hidden.IsAvailable = false
		snap.Products = append(snap.Products,
			storetest.Product("p1", farmer, 45, 50),
			storetest.Product("p2", farmer, 25, 3),
			hidden,
		)
	})
	svc, err := NewService(ServiceParams{Store: st, Pricing: defaultPricing, Clock: func() time.Time { return storetest.Now }})
	require.NoError(t, err)
	return st, svc
}

func TestAddMergesLinesPerProduct(t *testing.T) {
	st, svc := newCart(t)
	ctx := context.Background()

	first, err := svc.Add(ctx, "c1", "p1", 2)
	require.NoError(t, err)
	second, err := svc.Add(ctx, "c1", "p1", 3)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 5, second.Quantity)

	_, err = svc.Add(ctx, "c2", "p1", 1)
	require.NoError(t, err)

	snap := storetest.Snapshot(t, st)
	require.Len(t, snap.Cart, 2)
	assert.Equal(t, "45", snap.Cart[0].Product.Price.String())
}

func TestAddEnforcesInventoryAndAvailability(t *testing.T) {
	_, svc := newCart(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, "c1", "p2", 2)
	require.NoError(t, err)
	_, err = svc.Add(ctx, "c1", "p2", 2)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "merged quantity above inventory")

	_, err = svc.Add(ctx, "c1", "p3", 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
	_, err = svc.Add(ctx, "c1", "ghost", 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = svc.Add(ctx, "c1", "p1", 0)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = svc.Add(ctx, "f1", "p1", 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	view, err := svc.Get(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 2, view.Items[0].Quantity)
}

func TestUpdateQuantity(t *testing.T) {
	st, svc := newCart(t)
	ctx := context.Background()
	line, err := svc.Add(ctx, "c1", "p2", 1)
	require.NoError(t, err)

	updated, err := svc.UpdateQuantity(ctx, "c1", line.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Quantity)

	_, err = svc.UpdateQuantity(ctx, "c1", line.ID, 4)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	_, err = svc.UpdateQuantity(ctx, "c2", line.ID, 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "another customer's line")

	removed, err := svc.UpdateQuantity(ctx, "c1", line.ID, 0)
	require.NoError(t, err)
	assert.Nil(t, removed)
	assert.Empty(t, storetest.Snapshot(t, st).Cart)
}

func TestRemoveAndClear(t *testing.T) {
	st, svc := newCart(t)
	ctx := context.Background()
	a, err := svc.Add(ctx, "c1", "p1", 1)
	require.NoError(t, err)
	_, err = svc.Add(ctx, "c1", "p2", 1)
	require.NoError(t, err)
	_, err = svc.Add(ctx, "c2", "p1", 1)
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, "c1", a.ID))
	assert.True(t, pkgerrors.IsCode(svc.Remove(ctx, "c1", a.ID), pkgerrors.CodeNotFound))

	cleared, err := svc.Clear(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, cleared)

	snap := storetest.Snapshot(t, st)
	require.Len(t, snap.Cart, 1)
	assert.Equal(t, "c2", snap.Cart[0].CustomerID)
}

func TestSummaryDeliveryFee(t *testing.T) {
	farmer := storetest.Farmer("f1", "Farm")
	line := func(price int64, qty int) models.CartItem {
		return models.CartItem{Product: storetest.Product("p", farmer, price, 100), Quantity: qty}
	}

	small := defaultPricing.Summarize([]models.CartItem{line(45, 2), line(25, 1)})
	assert.Equal(t, 3, small.ItemCount)
	assert.Equal(t, "115", small.Subtotal.String())
	assert.Equal(t, "50", small.DeliveryFee.String())
	assert.Equal(t, "165", small.Total.String())

	atThreshold := defaultPricing.Summarize([]models.CartItem{line(250, 2)})
	assert.Equal(t, "50", atThreshold.DeliveryFee.String(), "exactly the threshold still pays delivery")

	large := defaultPricing.Summarize([]models.CartItem{line(501, 1)})
	assert.True(t, large.DeliveryFee.IsZero())
	assert.Equal(t, "501", large.Total.String())

	empty := defaultPricing.Summarize(nil)
	assert.True(t, empty.Total.IsZero())
}

func TestGetUnknownCustomer(t *testing.T) {
	_, svc := newCart(t)
	_, err := svc.Get(context.Background(), "ghost")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
