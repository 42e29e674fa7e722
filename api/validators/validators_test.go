package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/farmconnect-backend/pkg/errors"
)

type sampleBody struct {
	Email string `json:"email" validate:"required,email"`
	Kind  string `json:"kind" validate:"required,oneof=farmer consumer"`
}

func TestDecodeJSONBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.co","kind":"farmer"}`))
	var body sampleBody
	require.NoError(t, DecodeJSONBody(req, &body))
	assert.Equal(t, "farmer", body.Kind)
}

func TestDecodeJSONBodyReportsFieldErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"nope","kind":"admin"}`))
	var body sampleBody
	err := DecodeJSONBody(req, &body)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "must be a valid email", details["email"])
	assert.Equal(t, "must be one of: farmer consumer", details["kind"])
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.co","kind":"farmer","admin":true}`))
	var body sampleBody
	assert.True(t, pkgerrors.IsCode(DecodeJSONBody(req, &body), pkgerrors.CodeValidation))
}

func TestQueryParsers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?organic=true&minPrice=10.5&limit=5&cursor=abc&bad=x", nil)

	organic, err := ParseQueryBool(req, "organic")
	require.NoError(t, err)
	require.NotNil(t, organic)
	assert.True(t, *organic)

	missing, err := ParseQueryBool(req, "available")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = ParseQueryBool(req, "bad")
	assert.Error(t, err)

	min, err := ParseQueryDecimal(req, "minPrice")
	require.NoError(t, err)
	assert.Equal(t, "10.5", min.String())

	_, err = ParseQueryDecimal(req, "bad")
	assert.Error(t, err)

	page, err := ParsePage(req)
	require.NoError(t, err)
	assert.Equal(t, 5, page.Limit)
	assert.Equal(t, "abc", page.Cursor)
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "abc", SanitizeString("  abcdef ", 3))
	assert.Equal(t, "ab", SanitizeString("ab", 10))
	assert.Equal(t, "₹", SanitizeString("₹₹", 4), "never splits a rune")
}
