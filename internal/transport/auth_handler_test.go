package transport

import (
	"net/http"
	"testing"

	"tanepro-b2b/internal/domain"
	"tanepro-b2b/internal/middleware"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Feature: b2b-portal, Property 18: Invalid registration data is rejected
func TestProperty_InvalidRegistrationDataIsRejected(t *testing.T) {
	a := newAPI(t)
	properties := gopter.NewProperties(nil)

	properties.Property("registration with invalid data returns validation errors", prop.ForAll(
		func(invalidCase int) bool {
			req := RegisterRequest{Email: "yeni@firma.com", Password: "gizli123", Name: "Yeni Firma", Role: "customer"}
			switch invalidCase % 5 {
			case 0:
				req.Email = ""
			case 1:
				req.Email = "not-an-email"
			case 2:
				req.Password = "kisa"
			case 3:
				req.Name = ""
			case 4:
				req.Role = string(domain.RoleAdmin)
			}

			w := a.do(t, http.MethodPost, "/api/auth/register", req, nil)
			if w.Code != http.StatusBadRequest {
				t.Logf("FAIL: Expected 400, got %d: %s", w.Code, w.Body.String())
				return false
			}

			resp := decode[middleware.ErrorResponse](t, w)
			if _, ok := resp.Error.Details["validation_errors"]; !ok {
				t.Logf("FAIL: Response missing validation errors")
				return false
			}
			return true
		},
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRegister_CreatesAndMirrorsProfile(t *testing.T) {
	a := newAPI(t)

	w := a.do(t, http.MethodPost, "/api/auth/register", RegisterRequest{
		Email:    "bayi@ornek.com",
		Password: "bayi1234",
		Name:     "Örnek Bayi",
		Role:     "supplier",
		Phone:    "+90 555 000 0000",
		TabdkNo:  "SUP999",
		Address:  "Eskişehir",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	profile := decode[domain.UserProfile](t, w)
	assert.NotEmpty(t, profile.ID)
	assert.Equal(t, domain.RoleSupplier, profile.Role)

	suppliers := decode[[]domain.Party](t, a.do(t, http.MethodGet, "/api/suppliers", nil, a.admin(t)))
	found := false
	for _, s := range suppliers {
		found = found || (s.ID == profile.ID && s.TabdkNo == "SUP999")
	}
	assert.True(t, found, "registered supplier appears in the supplier list")

	// the new account can sign in through the local profiles
	a.login(t, "bayi@ornek.com", "bayi1234")
}

func TestRegister_DuplicateEmailConflicts(t *testing.T) {
	a := newAPI(t)

	w := a.do(t, http.MethodPost, "/api/auth/register", RegisterRequest{
		Email:    "Customer@TanePro.com",
		Password: "another1",
		Name:     "Kopya",
	}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLogin(t *testing.T) {
	a := newAPI(t)

	t.Run("seeded account", func(t *testing.T) {
		w := a.do(t, http.MethodPost, "/api/auth/login", LoginRequest{Email: "elit@tanepro.com", Password: "elit123"}, nil)
		require.Equal(t, http.StatusOK, w.Code)

		resp := decode[SessionResponse](t, w)
		require.NotNil(t, resp.User)
		assert.Equal(t, "4", resp.User.ID)
		assert.Equal(t, domain.RoleSupplier, resp.User.Role)
		assert.Equal(t, "authenticated", resp.State)
	})

	t.Run("wrong password", func(t *testing.T) {
		w := a.do(t, http.MethodPost, "/api/auth/login", LoginRequest{Email: "elit@tanepro.com", Password: "nope"}, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, domain.ErrInvalidCredentials.Error(), decode[middleware.ErrorResponse](t, w).Error.Message)
	})

	t.Run("malformed body", func(t *testing.T) {
		w := a.do(t, http.MethodPost, "/api/auth/login", "not an object", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestMeAndLogout(t *testing.T) {
	a := newAPI(t)

	anonymous := decode[SessionResponse](t, a.do(t, http.MethodGet, "/api/auth/me", nil, nil))
	assert.Nil(t, anonymous.User)
	assert.Equal(t, "anonymous", anonymous.State)

	cookies := a.customer(t)
	me := decode[SessionResponse](t, a.do(t, http.MethodGet, "/api/auth/me", nil, cookies))
	require.NotNil(t, me.User)
	assert.Equal(t, "customer@tanepro.com", me.User.Email)

	w := a.do(t, http.MethodPost, "/api/auth/logout", nil, cookies)
	assert.Equal(t, http.StatusNoContent, w.Code)
	expired := w.Result().Cookies()
	require.Len(t, expired, 1)
	assert.Less(t, expired[0].MaxAge, 0)
}
