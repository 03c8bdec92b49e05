package seed

import (
	"testing"
	"time"

	"tanepro-b2b/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestPartiesShareIDsWithAccounts(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	byID := map[string]domain.UserProfile{}
	for _, a := range Accounts(now) {
		byID[a.Profile.ID] = a.Profile
		assert.NotEmpty(t, a.Password)
		assert.True(t, a.Profile.Role.Valid())
	}

	suppliers := Suppliers(now)
	customers := Customers(now)
	assert.Len(t, suppliers, 4)
	assert.Len(t, customers, 5)

	for _, p := range append(suppliers, customers...) {
		profile, ok := byID[p.ID]
		if assert.True(t, ok, "party %s has no account", p.ID) {
			assert.Equal(t, profile.Email, p.Email)
			assert.Equal(t, profile.Name, p.Name)
		}
		assert.Equal(t, now, p.CreatedAt)
	}
}

func TestCategories(t *testing.T) {
	now := time.Now()
	cats := Categories(now)

	assert.Len(t, cats, 11)
	assert.Equal(t, "5", cats[0].ID)
	assert.Equal(t, "Bira", cats[0].Name)
	assert.Equal(t, "15", cats[len(cats)-1].ID)

	// callers get their own copy
	cats[0].Name = "changed"
	assert.Equal(t, "Bira", Categories(now)[0].Name)
}
