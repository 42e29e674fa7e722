package users

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/farmconnect-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/farmconnect-backend/pkg/errors"
	"github.com/angelmondragon/farmconnect-backend/pkg/models"
	"github.com/angelmondragon/farmconnect-backend/pkg/store"
	"github.com/angelmondragon/farmconnect-backend/pkg/store/storetest"
)

type stubHasher struct{ fail bool }

func (h stubHasher) Hash(password string) (string, error) {
	if h.fail {
		return "", errors.New("boom")
	}
	return "hashed:" + password, nil
}

func (stubHasher) Verify(password, encoded string) (bool, error) {
	if !strings.HasPrefix(encoded, "hashed:") {
		return false, errors.New("bad hash")
	}
	return encoded == "hashed:"+password, nil
}

func newTestService(t *testing.T, st *store.Store) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Store:  st,
		Hasher: stubHasher{},
		Clock:  func() time.Time { return storetest.Now },
	})
	require.NoError(t, err)
	return svc
}

func TestRegisterFarmerCreatesWelcomeNotification(t *testing.T) {
	st := storetest.New(t, nil)
	svc := newTestService(t, st)

	user, err := svc.Register(context.Background(), RegisterInput{
		Name:     "  Sunrise Orchards ",
		Email:    " Grower@Example.com",
		Password: "secret1",
		Role:     enums.UserRoleFarmer,
	})
	require.NoError(t, err)
	assert.Equal(t, "Sunrise Orchards", user.Name)
	assert.Equal(t, "grower@example.com", user.Email)
	assert.Empty(t, user.PasswordHash, "public user must not carry the hash")
	assert.Equal(t, enums.SubscriptionStatusNone, user.SubscriptionStatus)
	assert.False(t, CanAccessFarmerFeatures(user))

	snap := storetest.Snapshot(t, st)
	require.Len(t, snap.Users, 1)
	assert.Equal(t, "hashed:secret1", snap.Users[0].PasswordHash)
	require.Len(t, snap.Notifications, 1)
	n := snap.Notifications[0]
	assert.Equal(t, user.ID, n.UserID)
	assert.Equal(t, enums.NotificationTypeSystem, n.Type)
	assert.Equal(t, "Welcome to FarmConnect!", n.Title)
	assert.Equal(t, "Start listing your organic products and connect with customers directly.", n.Message)
	assert.False(t, n.Read)
}

func TestRegisterConsumerMessageAndDuplicateEmail(t *testing.T) {
	st := storetest.New(t, nil)
	svc := newTestService(t, st)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Name: "Asha", Email: "asha@example.com", Password: "pw1234", Role: enums.UserRoleConsumer})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Name: "Asha Two", Email: "ASHA@example.com", Password: "pw1234", Role: enums.UserRoleConsumer})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	snap := storetest.Snapshot(t, st)
	require.Len(t, snap.Users, 1)
	require.Len(t, snap.Notifications, 1)
	assert.Equal(t, "Discover fresh organic produce from local farmers in your area.", snap.Notifications[0].Message)
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(t, storetest.New(t, nil))
	ctx := context.Background()

	cases := map[string]RegisterInput{
		"name":     {Email: "a@b.c", Password: "x", Role: enums.UserRoleConsumer},
		"email":    {Name: "A", Email: "nope", Password: "x", Role: enums.UserRoleConsumer},
		"password": {Name: "A", Email: "a@b.c", Role: enums.UserRoleConsumer},
		"role":     {Name: "A", Email: "a@b.c", Password: "x", Role: "admin"},
	}
	for name, in := range cases {
		_, err := svc.Register(ctx, in)
		assert.Truef(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "%s: got %v", name, err)
	}

	failing, err := NewService(ServiceParams{Store: storetest.New(t, nil), Hasher: stubHasher{fail: true}})
	require.NoError(t, err)
	_, err = failing.Register(ctx, RegisterInput{Name: "A", Email: "a@b.c", Password: "x", Role: enums.UserRoleFarmer})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInternal))
}

func TestAuthenticate(t *testing.T) {
	earlier := storetest.Now.Add(-48 * time.Hour)
	st := storetest.New(t, func(snap *models.Snapshot) {
		u := storetest.Consumer("2", "Rajesh Kumar")
		u.Email = "consumer@example.com"
		u.PasswordHash = "hashed:password"
		u.LastLogin = earlier
		snap.Users = append(snap.Users, u)

		legacy := storetest.Consumer("3", "No Password")
		snap.Users = append(snap.Users, legacy)
	})
	svc := newTestService(t, st)
	ctx := context.Background()

	user, err := svc.Authenticate(ctx, "Consumer@Example.com ", "password")
	require.NoError(t, err)
	assert.Equal(t, "2", user.ID)
	assert.True(t, user.LastLogin.Equal(storetest.Now))
	assert.Empty(t, user.PasswordHash)

	for _, attempt := range [][2]string{
		{"consumer@example.com", "wrong"},
		{"nobody@example.com", "password"},
		{"3@shop.test", "anything"},
		{"", "password"},
	} {
		_, err := svc.Authenticate(ctx, attempt[0], attempt[1])
		require.Error(t, err)
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
		assert.Equal(t, "invalid credentials", typed.Message())
	}
}

func TestGetAndUpdate(t *testing.T) {
	st := storetest.New(t, func(snap *models.Snapshot) {
		snap.Users = append(snap.Users, storetest.Farmer("1", "Green Valley Farm"))
	})
	svc := newTestService(t, st)
	ctx := context.Background()

	phone := " +91 99999 00000 "
	prefs := []string{"organic"}
	updated, err := svc.Update(ctx, "1", UpdateInput{Phone: &phone, Preferences: &prefs})
	require.NoError(t, err)
	assert.Equal(t, "+91 99999 00000", updated.Phone)
	assert.Equal(t, "Green Valley Farm", updated.Name)
	assert.Equal(t, enums.UserRoleFarmer, updated.Role)
	assert.Equal(t, []string{"organic"}, updated.Preferences)

	got, err := svc.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, updated.Phone, got.Phone)
	assert.True(t, CanAccessFarmerFeatures(got))

	blank := "  "
	_, err = svc.Update(ctx, "1", UpdateInput{Name: &blank})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Get(ctx, "missing")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = svc.Update(ctx, "missing", UpdateInput{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
