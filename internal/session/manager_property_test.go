package session

import (
	"context"
	"errors"
	"testing"

	"tanepro-b2b/internal/domain"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

var roles = []interface{}{string(domain.RoleAdmin), string(domain.RoleSupplier), string(domain.RoleCustomer)}

// Feature: b2b-portal, Property 5: At most one profile per email
func TestProperty_DuplicateEmailIsRejected(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 25
	properties := gopter.NewProperties(parameters)

	properties.Property("a second registration with the same email fails and changes nothing", prop.ForAll(
		func(local string, remoteDown bool, name, roleName string) bool {
			role := domain.Role(roleName)
			f := newFixture()
			f.remote.setDown(remoteDown)
			m := f.manager()
			ctx := context.Background()
			email := local + "@tanepro.com"

			first, err := m.Register(ctx, RegisterInput{Email: email, Password: "first", Name: name, Role: role})
			if err != nil {
				t.Logf("FAIL: first registration returned %v", err)
				return false
			}

			_, err = m.Register(ctx, RegisterInput{Email: email, Password: "second", Name: name + "2", Role: domain.RoleCustomer})
			if !errors.Is(err, domain.ErrDuplicateEmail) {
				t.Logf("FAIL: expected ErrDuplicateEmail, got %v", err)
				return false
			}

			profiles, err := f.profiles.List(ctx)
			if err != nil || len(profiles) != 1 || profiles[0] != first {
				t.Logf("FAIL: profiles changed: %v %v", profiles, err)
				return false
			}
			return true
		},
		gen.RegexMatch(`[a-z]{3,12}`),
		gen.Bool(),
		gen.RegexMatch(`[A-Z][a-z]{2,15}`),
		gen.OneConstOf(roles...),
	))

	properties.TestingRun(t)
}

// Feature: b2b-portal, Property 6: Local fallback sign-in yields the stored role
func TestProperty_LocalFallbackKeepsRole(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 25
	properties := gopter.NewProperties(parameters)

	properties.Property("login with the remote unreachable authenticates with the registered role", prop.ForAll(
		func(local, password, roleName string) bool {
			role := domain.Role(roleName)
			f := newFixture()
			f.remote.setDown(true)
			ctx := context.Background()
			email := local + "@example.com"

			registered, err := f.manager().Register(ctx, RegisterInput{Email: email, Password: password, Role: role})
			if err != nil {
				t.Logf("FAIL: registration returned %v", err)
				return false
			}

			m := f.manager()
			profile, err := m.Login(ctx, email, password)
			if err != nil {
				t.Logf("FAIL: login returned %v", err)
				return false
			}
			if profile.Role != role || profile.ID != registered.ID || m.State() != Authenticated {
				t.Logf("FAIL: got %s/%s in state %s, want %s/%s", profile.ID, profile.Role, m.State(), registered.ID, role)
				return false
			}

			if _, err := f.manager().Login(ctx, email, password+"x"); !errors.Is(err, domain.ErrInvalidCredentials) {
				t.Logf("FAIL: wrong password accepted: %v", err)
				return false
			}
			return true
		},
		gen.RegexMatch(`[a-z]{3,12}`),
		gen.RegexMatch(`[a-zA-Z0-9]{6,20}`),
		gen.OneConstOf(roles...),
	))

	properties.TestingRun(t)
}
