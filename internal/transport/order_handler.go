package transport

import (
	"net/http"

	"tanepro-b2b/internal/datastore"
	"tanepro-b2b/internal/domain"
	"tanepro-b2b/internal/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// StatusRequest moves an order to another status
type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed preparing in_transit shipped delivered cancelled"`
}

// CartItemRequest adds a product to the cart. A missing quantity adds one.
type CartItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=0"`
}

// QuantityRequest sets a cart line; zero or less removes it
type QuantityRequest struct {
	Quantity int `json:"quantity"`
}

// CheckoutRequest places the cart as an order. The profile address is used
// when none is given.
type CheckoutRequest struct {
	Address string `json:"address" validate:"max=500"`
}

// OrderResponse is an order with its status label
type OrderResponse struct {
	domain.Order
	StatusLabel string `json:"statusLabel"`
}

func toOrderResponses(orders []domain.Order) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i, o := range orders {
		out[i] = OrderResponse{Order: o, StatusLabel: o.Status.Label()}
	}
	return out
}

// OrderHandler serves orders and the customer cart
type OrderHandler struct {
	store  *datastore.Store
	logger *zap.Logger
}

func NewOrderHandler(store *datastore.Store, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{store: store, logger: logger}
}

func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/orders", func(r chi.Router) {
		r.Use(middleware.RequireAdmin(h.logger))
		r.Get("/", h.ListOrders)
		r.Patch("/{id}/status", h.UpdateStatus)
	})

	r.With(middleware.RequireRole(h.logger, domain.RoleSupplier)).Get("/api/supplier/orders", h.SupplierOrders)
	r.With(middleware.RequireRole(h.logger, domain.RoleCustomer)).Get("/api/customer/orders", h.CustomerOrders)

	r.Route("/api/cart", func(r chi.Router) {
		r.Use(middleware.RequireRole(h.logger, domain.RoleCustomer))
		r.Get("/", h.GetCart)
		r.Delete("/", h.ClearCart)
		r.Post("/items", h.AddItem)
		r.Put("/items/{productID}", h.UpdateItem)
		r.Delete("/items/{productID}", h.RemoveItem)
		r.Post("/checkout", h.Checkout)
	})
}

func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, toOrderResponses(h.store.Orders()))
}

// UpdateStatus accepts only the known statuses
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	if _, err := h.store.Order(id); err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	status := domain.OrderStatus(req.Status)
	if err := h.store.UpdateOrderStatus(r.Context(), id, status); err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	order, err := h.store.Order(id)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	h.logger.Info("Order status updated", zap.String("order_id", id), zap.String("status", req.Status))
	middleware.RespondWithJSON(w, http.StatusOK, OrderResponse{Order: order, StatusLabel: status.Label()})
}

// SupplierOrders returns the orders holding the supplier's products, reduced
// to those lines
func (h *OrderHandler) SupplierOrders(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	middleware.RespondWithJSON(w, http.StatusOK, toOrderResponses(h.store.SupplierOrders(userID)))
}

func (h *OrderHandler) CustomerOrders(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	middleware.RespondWithJSON(w, http.StatusOK, toOrderResponses(h.store.CustomerOrders(userID)))
}

func (h *OrderHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	middleware.RespondWithJSON(w, http.StatusOK, h.store.Cart(userID))
}

func (h *OrderHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req CartItemRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	userID, _ := middleware.GetUserID(r.Context())
	cart, err := h.store.AddToCart(r.Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, cart)
}

func (h *OrderHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req QuantityRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	userID, _ := middleware.GetUserID(r.Context())
	cart, err := h.store.UpdateCartQuantity(r.Context(), userID, chi.URLParam(r, "productID"), req.Quantity)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, cart)
}

func (h *OrderHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	cart, err := h.store.RemoveFromCart(r.Context(), userID, chi.URLParam(r, "productID"))
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, cart)
}

func (h *OrderHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	if err := h.store.ClearCart(r.Context(), userID); err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if r.ContentLength != 0 {
		if err := middleware.DecodeAndValidate(r, &req); err != nil {
			middleware.RespondWithDecodeError(w, err)
			return
		}
	}

	profile, _ := middleware.CurrentProfile(r.Context())
	address := req.Address
	if address == "" {
		address = profile.Address
	}

	order, err := h.store.Checkout(r.Context(), profile.ID, profile.Name, address)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	h.logger.Info("Order placed",
		zap.String("order_id", order.ID),
		zap.String("customer_id", profile.ID),
		zap.String("total", order.Total.String()),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, OrderResponse{Order: order, StatusLabel: order.Status.Label()})
}
