package transport

import (
	"net/http"

	"tanepro-b2b/internal/middleware"
	"tanepro-b2b/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// OverviewHandler serves the dashboard figures of the caller's role
type OverviewHandler struct {
	overview *service.OverviewService
	logger   *zap.Logger
}

func NewOverviewHandler(overview *service.OverviewService, logger *zap.Logger) *OverviewHandler {
	return &OverviewHandler{overview: overview, logger: logger}
}

func (h *OverviewHandler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireAuth(h.logger)).Get("/api/overview", h.Get)
}

func (h *OverviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	profile, _ := middleware.CurrentProfile(r.Context())

	overview, err := h.overview.For(profile)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, overview)
}
