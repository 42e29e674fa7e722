package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundRating(t *testing.T) {
	assert.Equal(t, 4.5, RoundRating(9, 2))
	assert.Equal(t, 4.0, RoundRating(12, 3))
	assert.Equal(t, 4.7, RoundRating(14, 3))
	assert.Equal(t, 0.0, RoundRating(0, 0))
}

func TestSumLines(t *testing.T) {
	items := []CartItem{
		{Quantity: 2, Product: Product{Price: decimal.NewFromInt(45)}},
		{Quantity: 3, Product: Product{Price: decimal.RequireFromString("12.50")}},
	}
	assert.Equal(t, "127.5", SumLines(items).String())
}

func TestSnapshotEncodesEmptyCollectionsAsArrays(t *testing.T) {
	payload, err := json.Marshal(NewSnapshot())
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(payload, &raw))
	for _, key := range []string{"users", "products", "orders", "reviews", "notifications", "cart"} {
		assert.Equal(t, []any{}, raw[key], key)
	}
}

func TestSnapshotLoadsDocumentsWithRetiredCollections(t *testing.T) {
	var snap Snapshot
	require.NoError(t, json.Unmarshal([]byte(`{"users":[{"id":"u1"}],"messages":[{"id":"m1","content":"hi"}]}`), &snap))
	snap.Normalize()
	require.Len(t, snap.Users, 1)
	assert.Equal(t, "u1", snap.Users[0].ID)

	payload, err := json.Marshal(&snap)
	require.NoError(t, err)
	assert.NotContains(t, string(payload), "messages")
}

func TestProductPriceIsAJSONNumber(t *testing.T) {
	payload, err := json.Marshal(Product{Price: decimal.NewFromInt(45)})
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"price":45`)

	var decoded Product
	require.NoError(t, json.Unmarshal([]byte(`{"price":25.5,"certifications":null}`), &decoded))
	assert.True(t, decoded.Price.Equal(decimal.RequireFromString("25.5")))
}

func TestUserPublicDropsHash(t *testing.T) {
	u := User{ID: "1", PasswordHash: "$argon2id$..."}
	payload, err := json.Marshal(u.Public())
	require.NoError(t, err)
	assert.NotContains(t, string(payload), "passwordHash")
	assert.Equal(t, "$argon2id$...", u.PasswordHash)
}
