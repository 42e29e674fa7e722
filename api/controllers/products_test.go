package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/farmconnect-backend/internal/products"
	"github.com/angelmondragon/farmconnect-backend/pkg/enums"
	"github.com/angelmondragon/farmconnect-backend/pkg/models"
)

type stubProducts struct {
	filter   products.Filter
	farmerID string
	deleted  string
	create   products.CreateInput
}

func (s *stubProducts) List(_ context.Context, filter products.Filter) ([]models.Product, error) {
	s.filter = filter
	return []models.Product{{ID: "p1"}}, nil
}

func (s *stubProducts) Get(_ context.Context, id string) (*models.Product, error) {
	return &models.Product{ID: id}, nil
}

func (s *stubProducts) Create(_ context.Context, farmerID string, in products.CreateInput) (*models.Product, error) {
	s.farmerID, s.create = farmerID, in
	return &models.Product{ID: "new", FarmerID: farmerID, Name: in.Name}, nil
}

func (s *stubProducts) Update(_ context.Context, farmerID, productID string, _ products.UpdateInput) (*models.Product, error) {
	s.farmerID = farmerID
	return &models.Product{ID: productID, FarmerID: farmerID}, nil
}

func (s *stubProducts) Delete(_ context.Context, farmerID, productID string) error {
	s.farmerID, s.deleted = farmerID, productID
	return nil
}

func TestListProductsParsesFilter(t *testing.T) {
	svc := &stubProducts{}
	req := newRequest(http.MethodGet, "/api/v1/products?category=Fruits&location=punjab&minPrice=10&maxPrice=99.5&organic=true&available=false&farmerId=f1&search=%20mango%20&sort=price-low", nil)

	rec := serve(ListProducts(svc, nil), req)
	require.Equal(t, http.StatusOK, rec.Code)

	f := svc.filter
	assert.Equal(t, "Fruits", f.Category)
	assert.Equal(t, "punjab", f.Location)
	assert.Equal(t, "f1", f.FarmerID)
	assert.Equal(t, "mango", f.Search)
	assert.Equal(t, enums.ProductSortPriceLow, f.Sort)
	require.NotNil(t, f.MinPrice)
	assert.Equal(t, "10", f.MinPrice.String())
	require.NotNil(t, f.MaxPrice)
	assert.Equal(t, "99.5", f.MaxPrice.String())
	require.NotNil(t, f.Organic)
	assert.True(t, *f.Organic)
	require.NotNil(t, f.Available)
	assert.False(t, *f.Available)
}

func TestListProductsWithoutQueryLeavesFilterOpen(t *testing.T) {
	svc := &stubProducts{}
	rec := serve(ListProducts(svc, nil), newRequest(http.MethodGet, "/api/v1/products", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, svc.filter.MinPrice)
	assert.Nil(t, svc.filter.Organic)
	assert.Empty(t, svc.filter.Sort)
}

func TestListProductsRejectsBadQuery(t *testing.T) {
	for _, target := range []string{
		"/api/v1/products?minPrice=abc",
		"/api/v1/products?maxPrice=-1",
		"/api/v1/products?organic=maybe",
	} {
		rec := serve(ListProducts(&stubProducts{}, nil), newRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400 got %d", target, rec.Code)
		}
	}
}

func TestCreateProductUsesCaller(t *testing.T) {
	svc := &stubProducts{}
	body := map[string]any{"name": "Alphonso Mango", "category": "Fruits", "price": "320", "unit": "dozen", "inventory": 10}
	req := asUser(newRequest(http.MethodPost, "/api/v1/products", body), "f1", enums.UserRoleFarmer)

	rec := serve(CreateProduct(svc, nil), req)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "f1", svc.farmerID)
	assert.Equal(t, "320", svc.create.Price.String())
}

func TestCreateProductRejectsUnknownField(t *testing.T) {
	body := map[string]any{"name": "Mango", "category": "Fruits", "price": "1", "unit": "kg", "rating": 5}
	req := asUser(newRequest(http.MethodPost, "/api/v1/products", body), "f1", enums.UserRoleFarmer)
	rec := serve(CreateProduct(&stubProducts{}, nil), req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteProduct(t *testing.T) {
	svc := &stubProducts{}
	req := withParams(asUser(newRequest(http.MethodDelete, "/api/v1/products/p7", nil), "f1", enums.UserRoleFarmer), "productId", "p7")
	rec := serve(DeleteProduct(svc, nil), req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "p7", svc.deleted)
}
