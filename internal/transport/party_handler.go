package transport

import (
	"context"
	"net/http"

	"tanepro-b2b/internal/datastore"
	"tanepro-b2b/internal/domain"
	"tanepro-b2b/internal/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// PartyRequest represents a supplier or customer record
type PartyRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Phone   string `json:"phone" validate:"max=30"`
	Email   string `json:"email" validate:"omitempty,email"`
	TabdkNo string `json:"tabdkNo" validate:"max=50"`
	Address string `json:"address" validate:"max=500"`
}

// PartyHandler serves the supplier and customer collections to admins
type PartyHandler struct {
	store  *datastore.Store
	logger *zap.Logger
}

func NewPartyHandler(store *datastore.Store, logger *zap.Logger) *PartyHandler {
	return &PartyHandler{store: store, logger: logger}
}

func (h *PartyHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin(h.logger))

		r.Get("/api/suppliers", h.list(h.store.Suppliers))
		r.Post("/api/suppliers", h.create("supplier", h.store.AddSupplier))
		r.Get("/api/customers", h.list(h.store.Customers))
		r.Post("/api/customers", h.create("customer", h.store.AddCustomer))
	})
}

func (h *PartyHandler) list(all func() []domain.Party) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		middleware.RespondWithJSON(w, http.StatusOK, all())
	}
}

func (h *PartyHandler) create(kind string, add func(context.Context, domain.Party) (domain.Party, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PartyRequest
		if err := middleware.DecodeAndValidate(r, &req); err != nil {
			middleware.RespondWithDecodeError(w, err)
			return
		}

		party, err := add(r.Context(), domain.Party{
			Name:    req.Name,
			Phone:   req.Phone,
			Email:   req.Email,
			TabdkNo: req.TabdkNo,
			Address: req.Address,
		})
		if err != nil {
			middleware.RespondWithDomainError(w, h.logger, err)
			return
		}

		h.logger.Info("Party created", zap.String("kind", kind), zap.String("id", party.ID))
		middleware.RespondWithJSON(w, http.StatusCreated, party)
	}
}
