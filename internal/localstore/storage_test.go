package localstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func drivers(t *testing.T) map[string]Storage {
	t.Helper()
	logger := zap.NewNop()

	badgerStore, err := NewBadger("", logger)
	require.NoError(t, err)

	sqliteStore, err := NewSQLite(filepath.Join(t.TempDir(), "local.db"))
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	redisStore, err := NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	require.NoError(t, err)

	stores := map[string]Storage{
		DriverMemory: NewMemory(0),
		DriverBadger: badgerStore,
		DriverSQLite: sqliteStore,
		DriverRedis:  redisStore,
	}
	t.Cleanup(func() {
		for _, s := range stores {
			s.Close()
		}
	})
	return stores
}

func TestStorageDrivers(t *testing.T) {
	ctx := context.Background()

	for name, s := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(ctx, "tanepro_products")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Set(ctx, "tanepro_products", []byte(`[{"id":"1"}]`)))
			got, err := s.Get(ctx, "tanepro_products")
			require.NoError(t, err)
			assert.Equal(t, `[{"id":"1"}]`, string(got))

			require.NoError(t, s.Set(ctx, "tanepro_products", []byte(`[]`)))
			got, err = s.Get(ctx, "tanepro_products")
			require.NoError(t, err)
			assert.Equal(t, `[]`, string(got))

			require.NoError(t, s.Delete(ctx, "tanepro_products"))
			_, err = s.Get(ctx, "tanepro_products")
			assert.ErrorIs(t, err, ErrNotFound)

			// deleting a missing key is not an error
			assert.NoError(t, s.Delete(ctx, "tanepro_missing"))
		})
	}
}

// Feature: b2b-portal, Property 7: Local snapshots round-trip through every driver
func TestProperty_SetThenGetReturnsValue(t *testing.T) {
	ctx := context.Background()
	stores := drivers(t)

	properties := gopter.NewProperties(nil)

	properties.Property("a written value is read back unchanged", prop.ForAll(
		func(key string, value string) bool {
			for name, s := range stores {
				if err := s.Set(ctx, key, []byte(value)); err != nil {
					t.Logf("FAIL: %s set: %v", name, err)
					return false
				}
				got, err := s.Get(ctx, key)
				if err != nil || string(got) != value {
					t.Logf("FAIL: %s read %q, %v", name, got, err)
					return false
				}
			}
			return true
		},
		gen.RegexMatch(`[a-z]{1,10}_[a-z]{1,10}`),
		gen.RegexMatch(`[ -~]{1,64}`),
	))

	properties.TestingRun(t)
}

func TestMemoryQuota(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(10)

	require.NoError(t, m.Set(ctx, "a", []byte("12345")))
	assert.ErrorIs(t, m.Set(ctx, "b", []byte("123456")), ErrQuotaExceeded)

	// overwriting frees the old value's bytes first
	require.NoError(t, m.Set(ctx, "a", []byte("1234567890")))

	require.NoError(t, m.Delete(ctx, "a"))
	require.NoError(t, m.Set(ctx, "b", []byte("123456")))

	m.SetQuota(0)
	assert.NoError(t, m.Set(ctx, "c", make([]byte, 1024)))
}

func TestMemoryGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0)
	require.NoError(t, m.Set(ctx, "k", []byte("abc")))

	got, _ := m.Get(ctx, "k")
	got[0] = 'z'

	again, _ := m.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
}

func TestWithPrefix(t *testing.T) {
	ctx := context.Background()
	base := NewMemory(0)
	s := WithPrefix(base, "tanepro")

	require.NoError(t, s.Set(ctx, "orders", []byte("[]")))

	raw, err := base.Get(ctx, "tanepro_orders")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))

	_, err = base.Get(ctx, "orders")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Same(t, Storage(base), WithPrefix(base, ""))
}

func TestOpen(t *testing.T) {
	logger := zap.NewNop()

	s, err := Open(Config{Driver: DriverMemory, Prefix: "tanepro"}, logger)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Set(context.Background(), "users", []byte("[]")))

	_, err = Open(Config{Driver: "localStorage"}, logger)
	assert.Error(t, err)

	_, err = Open(Config{Driver: DriverRedis}, logger)
	assert.Error(t, err)

	s, err = Open(Config{Driver: DriverSQLite, Path: filepath.Join(t.TempDir(), "kv.db")}, logger)
	require.NoError(t, err)
	assert.NoError(t, s.Close())
}
