package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"tanepro-b2b/internal/datastore"
	"tanepro-b2b/internal/domain"
	"tanepro-b2b/internal/localstore"
	"tanepro-b2b/internal/middleware"
	"tanepro-b2b/internal/seed"
	"tanepro-b2b/internal/service"
	"tanepro-b2b/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Mock remote catalog that accepts every write
type memCatalog struct {
	mu         sync.Mutex
	products   []domain.Product
	categories []domain.Category
}

func (m *memCatalog) ListProducts(context.Context) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Product(nil), m.products...), nil
}

func (m *memCatalog) InsertProducts(_ context.Context, products []domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products = append(m.products, products...)
	return nil
}

func (m *memCatalog) UpdateProduct(_ context.Context, product domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.products {
		if m.products[i].ID == product.ID {
			m.products[i] = product
		}
	}
	return nil
}

func (m *memCatalog) DeleteProduct(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.products {
		if m.products[i].ID == id {
			m.products = append(m.products[:i], m.products[i+1:]...)
			break
		}
	}
	return nil
}

func (m *memCatalog) ListCategories(context.Context) ([]domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Category(nil), m.categories...), nil
}

func (m *memCatalog) InsertCategory(_ context.Context, c domain.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories = append(m.categories, c)
	return nil
}

func (m *memCatalog) UpdateCategory(context.Context, domain.Category) error { return nil }
func (m *memCatalog) DeleteCategory(context.Context, string) error          { return nil }

var testCookieKey = []byte("fedcba9876543210fedcba9876543210")

type api struct {
	handler http.Handler
	store   *datastore.Store
}

// newAPI serves every handler over the seeded store. The remote auth is
// offline, so the demo accounts sign in through the local profiles.
func newAPI(t *testing.T) *api {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()

	local := localstore.NewMemory(0)
	store := datastore.New(local, &memCatalog{}, logger)
	require.NoError(t, store.Init(ctx))

	profiles := session.NewProfileStore(local, bcrypt.MinCost)
	_, err := profiles.Seed(ctx, seed.Accounts(time.Now()))
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(middleware.SessionMiddleware(middleware.SessionConfig{
		Remote:   session.OfflineAuth{},
		Profiles: profiles,
		Mirror:   store,
		Store:    middleware.NewCookieStore(testCookieKey, false),
	}, logger))

	NewAuthHandler(logger).RegisterRoutes(r, func(next http.Handler) http.Handler { return next })
	NewCatalogHandler(store, logger).RegisterRoutes(r)
	NewPartyHandler(store, logger).RegisterRoutes(r)
	NewOrderHandler(store, logger).RegisterRoutes(r)
	NewOverviewHandler(service.NewOverviewService(store, nil), logger).RegisterRoutes(r)

	return &api{handler: r, store: store}
}

func (a *api) do(t *testing.T, method, path string, body interface{}, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	return w
}

func (a *api) login(t *testing.T, email, password string) []*http.Cookie {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/auth/login", LoginRequest{Email: email, Password: password}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies
}

func (a *api) admin(t *testing.T) []*http.Cookie {
	return a.login(t, "admin@tanepro.com", "admin123")
}

func (a *api) supplier(t *testing.T) []*http.Cookie {
	return a.login(t, "supplier@tanepro.com", "supplier123")
}

func (a *api) customer(t *testing.T) []*http.Cookie {
	return a.login(t, "customer@tanepro.com", "customer123")
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}
