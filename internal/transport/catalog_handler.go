package transport

import (
	"errors"
	"net/http"

	"tanepro-b2b/internal/datastore"
	"tanepro-b2b/internal/domain"
	"tanepro-b2b/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var errNotOwner = errors.New("product belongs to another supplier")

// CategoryRequest represents the category creation payload
type CategoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

type CategoryUpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

// ProductRequest represents the product creation payload. Field names follow
// the remote table columns.
type ProductRequest struct {
	Name          string          `json:"name" validate:"required,max=200"`
	Description   string          `json:"description"`
	CategoryID    string          `json:"category_id"`
	SupplierID    string          `json:"supplier_id"`
	StockQuantity int             `json:"stock_quantity" validate:"gte=0"`
	ShelfPrice    decimal.Decimal `json:"shelf_price" validate:"gt=0"`
	SellingPrice  decimal.Decimal `json:"selling_price" validate:"gt=0"`
	Images        []string        `json:"images" validate:"omitempty,dive,url"`
}

func (req ProductRequest) product() domain.Product {
	return domain.Product{
		Name:          req.Name,
		Description:   req.Description,
		CategoryID:    req.CategoryID,
		SupplierID:    req.SupplierID,
		StockQuantity: req.StockQuantity,
		ShelfPrice:    req.ShelfPrice,
		SellingPrice:  req.SellingPrice,
		Images:        req.Images,
	}
}

// BatchProductRequest adds several products at once
type BatchProductRequest struct {
	Products []ProductRequest `json:"products" validate:"required,min=1,dive"`
}

// ProductUpdateRequest lists the fields to change; omitted fields are kept
type ProductUpdateRequest struct {
	Name          *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Description   *string          `json:"description"`
	CategoryID    *string          `json:"category_id"`
	SupplierID    *string          `json:"supplier_id"`
	StockQuantity *int             `json:"stock_quantity" validate:"omitempty,gte=0"`
	ShelfPrice    *decimal.Decimal `json:"shelf_price" validate:"omitnil,gt=0"`
	SellingPrice  *decimal.Decimal `json:"selling_price" validate:"omitnil,gt=0"`
	Images        []string         `json:"images" validate:"omitempty,dive,url"`
}

func (req ProductUpdateRequest) patch() datastore.ProductPatch {
	return datastore.ProductPatch{
		Name:          req.Name,
		Description:   req.Description,
		CategoryID:    req.CategoryID,
		SupplierID:    req.SupplierID,
		StockQuantity: req.StockQuantity,
		ShelfPrice:    req.ShelfPrice,
		SellingPrice:  req.SellingPrice,
		Images:        req.Images,
	}
}

// CatalogHandler serves categories and products
type CatalogHandler struct {
	store  *datastore.Store
	logger *zap.Logger
}

func NewCatalogHandler(store *datastore.Store, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{store: store, logger: logger}
}

// RegisterRoutes registers the catalog routes. Reads need a session; writes
// are limited by role.
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/categories", func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.logger))
		r.Get("/", h.ListCategories)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(h.logger))
			r.Post("/", h.CreateCategory)
			r.Put("/{id}", h.UpdateCategory)
			r.Delete("/{id}", h.DeleteCategory)
		})
	})

	r.Route("/api/products", func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.logger))
		r.Get("/", h.ListProducts)
		r.Get("/{id}", h.GetProduct)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(h.logger, domain.RoleSupplier, domain.RoleAdmin))
			r.Post("/", h.CreateProduct)
			r.Put("/{id}", h.UpdateProduct)
			r.Delete("/{id}", h.DeleteProduct)
		})
		r.With(middleware.RequireAdmin(h.logger)).Post("/batch", h.CreateProducts)
	})
}

func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, h.store.Categories())
}

func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	category, err := h.store.AddCategory(r.Context(), domain.Category{Name: req.Name, Description: req.Description})
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	h.logger.Info("Category created", zap.String("category_id", category.ID))
	middleware.RespondWithJSON(w, http.StatusCreated, category)
}

func (h *CatalogHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryUpdateRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	category, err := h.store.UpdateCategory(r.Context(), chi.URLParam(r, "id"), datastore.CategoryPatch{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, category)
}

func (h *CatalogHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListProducts returns every product with its category and supplier names
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	if supplierID := r.URL.Query().Get("supplier_id"); supplierID != "" {
		middleware.RespondWithJSON(w, http.StatusOK, h.store.ProductsBySupplier(supplierID))
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, h.store.ProductsWithDetails())
}

func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.store.Product(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// CreateProduct adds a product. Suppliers always create their own products.
func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	profile, _ := middleware.CurrentProfile(r.Context())
	if profile.Role == domain.RoleSupplier {
		req.SupplierID = profile.ID
	}

	product, err := h.store.AddProduct(r.Context(), req.product())
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	h.logger.Info("Product created", zap.String("product_id", product.ID), zap.String("supplier_id", product.SupplierID))
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

func (h *CatalogHandler) CreateProducts(w http.ResponseWriter, r *http.Request) {
	var req BatchProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	batch := make([]domain.Product, len(req.Products))
	for i, p := range req.Products {
		batch[i] = p.product()
	}

	products, err := h.store.AddProducts(r.Context(), batch)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	h.logger.Info("Products created", zap.Int("count", len(products)))
	middleware.RespondWithJSON(w, http.StatusCreated, products)
}

// UpdateProduct changes a product. Suppliers may only change their own
// products and cannot hand them to another supplier.
func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductUpdateRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	profile, ok := h.authorizeProduct(w, r, id)
	if !ok {
		return
	}
	if profile.Role == domain.RoleSupplier {
		req.SupplierID = nil
	}

	product, err := h.store.UpdateProduct(r.Context(), id, req.patch())
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.authorizeProduct(w, r, id); !ok {
		return
	}

	if err := h.store.DeleteProduct(r.Context(), id); err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// authorizeProduct checks that the caller may change product id
func (h *CatalogHandler) authorizeProduct(w http.ResponseWriter, r *http.Request, id string) (domain.UserProfile, bool) {
	profile, _ := middleware.CurrentProfile(r.Context())
	if profile.Role != domain.RoleSupplier {
		return profile, true
	}

	product, err := h.store.Product(id)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return profile, false
	}
	if product.SupplierID != profile.ID {
		h.logger.Warn("Supplier attempted to change another supplier's product",
			zap.String("user_id", profile.ID),
			zap.String("product_id", id),
			zap.Error(errNotOwner),
		)
		middleware.RespondWithError(w, http.StatusForbidden, errNotOwner.Error())
		return profile, false
	}
	return profile, true
}
