package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"tanepro-b2b/internal/domain"
	"tanepro-b2b/internal/localstore"
)

// Source tells where a cached session came from
type Source string

const (
	SourceRemote Source = "remote"
	// SourceLocal marks a session granted by the local profile fallback
	SourceLocal Source = "local"
)

// Cached is the resolved identity remembered for one client
type Cached struct {
	Profile domain.UserProfile `json:"profile"`
	Tokens  domain.Tokens      `json:"tokens"`
	Source  Source             `json:"source"`
}

// Cache remembers the resolved session of one client between requests
type Cache interface {
	// Load returns nil when nothing is cached
	Load(ctx context.Context) (*Cached, error)
	Save(ctx context.Context, cached Cached) error
	Clear(ctx context.Context) error
}

// KeySessionUser is the local storage key of the cached session
const KeySessionUser = "user"

// StorageCache keeps the session in local storage. It serves single-client
// processes such as the CLI.
type StorageCache struct {
	local localstore.Storage
}

func NewStorageCache(local localstore.Storage) *StorageCache {
	return &StorageCache{local: local}
}

func (c *StorageCache) Load(ctx context.Context) (*Cached, error) {
	raw, err := c.local.Get(ctx, KeySessionUser)
	if err != nil {
		if errors.Is(err, localstore.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var cached Cached
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, nil
	}
	return &cached, nil
}

func (c *StorageCache) Save(ctx context.Context, cached Cached) error {
	raw, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := c.local.Set(ctx, KeySessionUser, raw); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrPersistence, KeySessionUser, err)
	}
	return nil
}

func (c *StorageCache) Clear(ctx context.Context) error {
	return c.local.Delete(ctx, KeySessionUser)
}
