package transport

import (
	"net/http"
	"testing"

	"tanepro-b2b/internal/domain"
	"tanepro-b2b/internal/middleware"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProductRequest(name string) ProductRequest {
	return ProductRequest{
		Name:          name,
		Description:   "24 x 500ml",
		CategoryID:    "5",
		StockQuantity: 40,
		ShelfPrice:    decimal.RequireFromString("45.00"),
		SellingPrice:  decimal.RequireFromString("39.90"),
		Images:        []string{"https://cdn.tanepro.com/efes.jpg"},
	}
}

func TestCategories(t *testing.T) {
	a := newAPI(t)

	t.Run("anonymous callers are rejected", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, a.do(t, http.MethodGet, "/api/categories", nil, nil).Code)
	})

	t.Run("seeded categories are listed", func(t *testing.T) {
		categories := decode[[]domain.Category](t, a.do(t, http.MethodGet, "/api/categories", nil, a.customer(t)))
		assert.Len(t, categories, 11)
	})

	t.Run("only admins change categories", func(t *testing.T) {
		w := a.do(t, http.MethodPost, "/api/categories", CategoryRequest{Name: "Enerji İçeceği"}, a.supplier(t))
		assert.Equal(t, http.StatusForbidden, w.Code)

		admin := a.admin(t)
		w = a.do(t, http.MethodPost, "/api/categories", CategoryRequest{Name: "Enerji İçeceği"}, admin)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		created := decode[domain.Category](t, w)

		name := "Enerji"
		w = a.do(t, http.MethodPut, "/api/categories/"+created.ID, CategoryUpdateRequest{Name: &name}, admin)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Enerji", decode[domain.Category](t, w).Name)

		assert.Equal(t, http.StatusNoContent, a.do(t, http.MethodDelete, "/api/categories/"+created.ID, nil, admin).Code)
		assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodDelete, "/api/categories/"+created.ID, nil, admin).Code)
	})
}

func TestProducts_SupplierOwnsWhatItCreates(t *testing.T) {
	a := newAPI(t)
	supplier := a.supplier(t)

	req := newProductRequest("Efes Pilsen")
	req.SupplierID = "4"
	w := a.do(t, http.MethodPost, "/api/products", req, supplier)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	product := decode[domain.Product](t, w)
	assert.Equal(t, "2", product.SupplierID, "suppliers cannot create products for others")
	assert.NotEmpty(t, product.ID)

	details := decode[[]domain.ProductDetails](t, a.do(t, http.MethodGet, "/api/products", nil, a.customer(t)))
	require.Len(t, details, 1)
	assert.Equal(t, "Premium İçecek Tedarikçisi", details[0].SupplierName)
	assert.Equal(t, "Bira", details[0].CategoryName)

	own := decode[[]domain.Product](t, a.do(t, http.MethodGet, "/api/products?supplier_id=2", nil, supplier))
	assert.Len(t, own, 1)
}

func TestProducts_OwnershipAndRoles(t *testing.T) {
	a := newAPI(t)

	w := a.do(t, http.MethodPost, "/api/products", newProductRequest("Tuborg Gold"), a.supplier(t))
	require.Equal(t, http.StatusCreated, w.Code)
	product := decode[domain.Product](t, w)

	stock := 5
	update := ProductUpdateRequest{StockQuantity: &stock}

	other := a.login(t, "anadolu@tanepro.com", "anadolu123")
	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodPut, "/api/products/"+product.ID, update, other).Code)
	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodDelete, "/api/products/"+product.ID, nil, other).Code)
	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodPost, "/api/products", newProductRequest("X"), a.customer(t)).Code)

	w = a.do(t, http.MethodPut, "/api/products/"+product.ID, update, a.admin(t))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, decode[domain.Product](t, w).StockQuantity)

	assert.Equal(t, http.StatusNoContent, a.do(t, http.MethodDelete, "/api/products/"+product.ID, nil, a.supplier(t)).Code)
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, "/api/products/"+product.ID, nil, a.supplier(t)).Code)
}

func TestProducts_Validation(t *testing.T) {
	a := newAPI(t)
	supplier := a.supplier(t)

	req := newProductRequest("Negatif")
	req.SellingPrice = decimal.RequireFromString("-1")
	w := a.do(t, http.MethodPost, "/api/products", req, supplier)
	require.Equal(t, http.StatusBadRequest, w.Code)

	resp := decode[middleware.ErrorResponse](t, w)
	assert.Contains(t, w.Body.String(), "selling_price")
	assert.Equal(t, "validation failed", resp.Error.Message)

	req = newProductRequest("Bozuk görsel")
	req.Images = []string{"not a url"}
	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodPost, "/api/products", req, supplier).Code)

	t.Run("prices must be positive", func(t *testing.T) {
		req := newProductRequest("Bedava")
		req.ShelfPrice = decimal.Zero
		req.SellingPrice = decimal.Zero
		w := a.do(t, http.MethodPost, "/api/products", req, supplier)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "shelf_price")
		assert.Contains(t, w.Body.String(), "selling_price")

		batch := BatchProductRequest{Products: []ProductRequest{req}}
		assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodPost, "/api/products/batch", batch, a.admin(t)).Code)
		assert.Empty(t, a.store.Products())
	})

	t.Run("updates cannot zero a price", func(t *testing.T) {
		w := a.do(t, http.MethodPost, "/api/products", newProductRequest("Efes"), supplier)
		require.Equal(t, http.StatusCreated, w.Code)
		product := decode[domain.Product](t, w)

		zero := decimal.Zero
		w = a.do(t, http.MethodPut, "/api/products/"+product.ID, ProductUpdateRequest{SellingPrice: &zero}, supplier)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		stored, err := a.store.Product(product.ID)
		require.NoError(t, err)
		assert.True(t, stored.SellingPrice.Equal(decimal.RequireFromString("39.90")))
	})
}

func TestProducts_Batch(t *testing.T) {
	a := newAPI(t)

	batch := BatchProductRequest{Products: []ProductRequest{newProductRequest("Efes Malt"), newProductRequest("Bomonti")}}
	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodPost, "/api/products/batch", batch, a.supplier(t)).Code)

	w := a.do(t, http.MethodPost, "/api/products/batch", batch, a.admin(t))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	products := decode[[]domain.Product](t, w)
	require.Len(t, products, 2)
	assert.NotEqual(t, products[0].ID, products[1].ID)
	assert.Len(t, a.store.Products(), 2)

	w = a.do(t, http.MethodPost, "/api/products/batch", BatchProductRequest{}, a.admin(t))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
