package datastore

import (
	"context"
	"fmt"
	"slices"

	"tanepro-b2b/internal/domain"
)

// AddSupplier stores a new supplier record with a generated id
func (s *Store) AddSupplier(ctx context.Context, supplier domain.Party) (domain.Party, error) {
	return s.addParty(ctx, &s.suppliers, supplier)
}

// AddCustomer stores a new customer record with a generated id
func (s *Store) AddCustomer(ctx context.Context, customer domain.Party) (domain.Party, error) {
	return s.addParty(ctx, &s.customers, customer)
}

func (s *Store) addParty(ctx context.Context, c *collection[domain.Party], party domain.Party) (domain.Party, error) {
	party.ID = s.newID()
	party.CreatedAt = s.now()

	err := mutateLocal(ctx, s, c, func(items []domain.Party) ([]domain.Party, error) {
		return append(items, party), nil
	})
	if err != nil {
		return domain.Party{}, fmt.Errorf("failed to add %s record: %w", c.key, err)
	}
	return party, nil
}

// MirrorProfile records a registered supplier or customer profile in the
// matching collection under the profile's own id. Admin profiles are not
// mirrored. An existing record with the same id is replaced.
func (s *Store) MirrorProfile(ctx context.Context, profile domain.UserProfile) error {
	var c *collection[domain.Party]
	switch profile.Role {
	case domain.RoleSupplier:
		c = &s.suppliers
	case domain.RoleCustomer:
		c = &s.customers
	default:
		return nil
	}

	party := profile.Party()
	if party.CreatedAt.IsZero() {
		party.CreatedAt = s.now()
	}

	err := mutateLocal(ctx, s, c, func(items []domain.Party) ([]domain.Party, error) {
		if i := slices.IndexFunc(items, func(p domain.Party) bool { return p.ID == party.ID }); i >= 0 {
			items[i] = party
			return items, nil
		}
		return append(items, party), nil
	})
	if err != nil {
		return fmt.Errorf("failed to mirror %s profile: %w", profile.Role, err)
	}
	return nil
}
