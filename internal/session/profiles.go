package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"tanepro-b2b/internal/domain"
	"tanepro-b2b/internal/localstore"
	"tanepro-b2b/internal/seed"

	"golang.org/x/crypto/bcrypt"
)

// KeyUsers is the local storage key of the profile list
const KeyUsers = "users"

type storedProfile struct {
	domain.UserProfile
	PasswordHash string `json:"passwordHash,omitempty"`
}

// ProfileStore keeps user profiles in local storage. Passwords are stored as
// bcrypt hashes only.
type ProfileStore struct {
	local    localstore.Storage
	hashCost int
	mu       sync.Mutex
}

func NewProfileStore(local localstore.Storage, hashCost int) *ProfileStore {
	if hashCost == 0 {
		hashCost = bcrypt.DefaultCost
	}
	return &ProfileStore{local: local, hashCost: hashCost}
}

// Seed writes the demo accounts when no profile list exists yet. It reports
// whether anything was written.
func (p *ProfileStore) Seed(ctx context.Context, accounts []seed.Account) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, err := p.local.Get(ctx, KeyUsers)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, localstore.ErrNotFound) {
		return false, fmt.Errorf("failed to read profiles: %w", err)
	}

	profiles := make([]storedProfile, 0, len(accounts))
	for _, a := range accounts {
		hash, err := bcrypt.GenerateFromPassword([]byte(a.Password), p.hashCost)
		if err != nil {
			return false, fmt.Errorf("failed to hash password: %w", err)
		}
		profiles = append(profiles, storedProfile{UserProfile: a.Profile, PasswordHash: string(hash)})
	}
	if err := p.write(ctx, profiles); err != nil {
		return false, err
	}
	return true, nil
}

// List returns every stored profile
func (p *ProfileStore) List(ctx context.Context) ([]domain.UserProfile, error) {
	stored, err := p.read(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.UserProfile, len(stored))
	for i, s := range stored {
		out[i] = s.UserProfile
	}
	return out, nil
}

func (p *ProfileStore) FindByID(ctx context.Context, id string) (domain.UserProfile, error) {
	return p.find(ctx, func(s storedProfile) bool { return s.ID == id })
}

// FindByEmail matches emails case-insensitively
func (p *ProfileStore) FindByEmail(ctx context.Context, email string) (domain.UserProfile, error) {
	return p.find(ctx, func(s storedProfile) bool { return strings.EqualFold(s.Email, email) })
}

// Create stores a new profile with the password hashed. It fails with
// domain.ErrDuplicateEmail when the email is taken.
func (p *ProfileStore) Create(ctx context.Context, profile domain.UserProfile, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.hashCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	stored, err := p.read(ctx)
	if err != nil {
		return err
	}
	for _, s := range stored {
		if strings.EqualFold(s.Email, profile.Email) {
			return domain.ErrDuplicateEmail
		}
	}

	stored = append(stored, storedProfile{UserProfile: profile, PasswordHash: string(hash)})
	return p.write(ctx, stored)
}

// Authenticate returns the profile whose email and password match
func (p *ProfileStore) Authenticate(ctx context.Context, email, password string) (domain.UserProfile, error) {
	stored, err := p.read(ctx)
	if err != nil {
		return domain.UserProfile{}, err
	}
	for _, s := range stored {
		if !strings.EqualFold(s.Email, email) || s.PasswordHash == "" {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(s.PasswordHash), []byte(password)) == nil {
			return s.UserProfile, nil
		}
	}
	return domain.UserProfile{}, domain.ErrInvalidCredentials
}

func (p *ProfileStore) find(ctx context.Context, match func(storedProfile) bool) (domain.UserProfile, error) {
	stored, err := p.read(ctx)
	if err != nil {
		return domain.UserProfile{}, err
	}
	for _, s := range stored {
		if match(s) {
			return s.UserProfile, nil
		}
	}
	return domain.UserProfile{}, domain.ErrProfileNotFound
}

func (p *ProfileStore) read(ctx context.Context) ([]storedProfile, error) {
	raw, err := p.local.Get(ctx, KeyUsers)
	if err != nil {
		if errors.Is(err, localstore.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: failed to read %s: %w", domain.ErrPersistence, KeyUsers, err)
	}

	var stored []storedProfile
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("%w: %s is unreadable: %w", domain.ErrPersistence, KeyUsers, err)
	}
	return stored, nil
}

func (p *ProfileStore) write(ctx context.Context, stored []storedProfile) error {
	raw, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to encode profiles: %w", err)
	}
	if err := p.local.Set(ctx, KeyUsers, raw); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrPersistence, KeyUsers, err)
	}
	return nil
}
