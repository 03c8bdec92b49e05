// Package datastore owns the in-memory collections of the portal. Each
// collection is mirrored to local storage; products and categories are also
// backed by the remote catalog and updated optimistically.
package datastore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"tanepro-b2b/internal/domain"
	"tanepro-b2b/internal/localstore"
	"tanepro-b2b/internal/seed"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Local storage keys, one per collection
const (
	KeySuppliers  = "suppliers"
	KeyCustomers  = "customers"
	KeyProducts   = "products"
	KeyCategories = "categories"
	KeyOrders     = "orders"
	KeyCarts      = "carts"
)

// DefaultRemoteTimeout bounds every call to the remote catalog
const DefaultRemoteTimeout = 10 * time.Second

var errEmptyRemote = errors.New("remote returned no rows")

// Catalog is the remote backend for products and categories
type Catalog interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	InsertProducts(ctx context.Context, products []domain.Product) error
	UpdateProduct(ctx context.Context, product domain.Product) error
	DeleteProduct(ctx context.Context, id string) error
	ListCategories(ctx context.Context) ([]domain.Category, error)
	InsertCategory(ctx context.Context, category domain.Category) error
	UpdateCategory(ctx context.Context, category domain.Category) error
	DeleteCategory(ctx context.Context, id string) error
}

// Cart is the cart of one customer
type Cart struct {
	CustomerID string            `json:"customerId"`
	Items      []domain.CartItem `json:"items"`
}

// collection holds the published state of one collection. committed is the
// state confirmed by the remote (and mirrored locally); items is committed
// with every in-flight optimistic change applied in order.
type collection[T any] struct {
	key       string
	mu        sync.RWMutex
	items     []T
	committed []T
	pending   []*change[T]
}

// change is one in-flight optimistic mutation. apply must only touch the
// entities the mutation owns so it can be replayed over any state.
type change[T any] struct {
	apply func([]T) []T
}

func (c *collection[T]) get() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.items)
}

// set replaces the committed state; in-flight changes stay published
func (c *collection[T]) set(items []T) {
	c.mu.Lock()
	c.committed = items
	c.items = c.replay()
	c.mu.Unlock()
}

// replay rebuilds the published state. The caller holds mu.
func (c *collection[T]) replay() []T {
	items := slices.Clone(c.committed)
	for _, ch := range c.pending {
		items = ch.apply(items)
	}
	return items
}

func (c *collection[T]) drop(ch *change[T]) {
	c.pending = slices.DeleteFunc(c.pending, func(p *change[T]) bool { return p == ch })
}

// Store is the single owner of every collection. It is safe for concurrent
// use; concurrent mutations of the same entity are last-write-wins.
type Store struct {
	local         localstore.Storage
	catalog       Catalog
	logger        *zap.Logger
	now           func() time.Time
	newID         func() string
	remoteTimeout time.Duration

	suppliers  collection[domain.Party]
	customers  collection[domain.Party]
	products   collection[domain.Product]
	categories collection[domain.Category]
	orders     collection[domain.Order]
	carts      collection[Cart]
}

// Option configures a Store
type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

func WithRemoteTimeout(d time.Duration) Option {
	return func(s *Store) { s.remoteTimeout = d }
}

// NewID returns a time-ordered unique id
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// New creates a Store. A nil catalog behaves as an unreachable remote.
func New(local localstore.Storage, catalog Catalog, logger *zap.Logger, opts ...Option) *Store {
	if catalog == nil {
		catalog = offlineCatalog{}
	}
	s := &Store{
		local:         local,
		catalog:       catalog,
		logger:        logger,
		now:           time.Now,
		newID:         NewID,
		remoteTimeout: DefaultRemoteTimeout,
		suppliers:     collection[domain.Party]{key: KeySuppliers},
		customers:     collection[domain.Party]{key: KeyCustomers},
		products:      collection[domain.Product]{key: KeyProducts},
		categories:    collection[domain.Category]{key: KeyCategories},
		orders:        collection[domain.Order]{key: KeyOrders},
		carts:         collection[Cart]{key: KeyCarts},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init hydrates every collection. Remote-backed collections are fetched
// concurrently; remote failures fall back to the local copy, then to seed data.
func (s *Store) Init(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hydrate(gctx, s, &s.products, s.fetchProducts, nil)
		return gctx.Err()
	})
	g.Go(func() error {
		hydrate(gctx, s, &s.categories, s.fetchCategories, seed.Categories(s.now()))
		return gctx.Err()
	})

	hydrate(ctx, s, &s.suppliers, nil, seed.Suppliers(s.now()))
	hydrate(ctx, s, &s.customers, nil, seed.Customers(s.now()))
	hydrate(ctx, s, &s.orders, nil, nil)
	hydrate(ctx, s, &s.carts, nil, nil)

	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}

	s.logger.Info("Store initialized",
		zap.Int("products", len(s.products.get())),
		zap.Int("categories", len(s.categories.get())),
		zap.Int("suppliers", len(s.suppliers.get())),
		zap.Int("customers", len(s.customers.get())),
		zap.Int("orders", len(s.orders.get())),
	)
	return nil
}

// hydrate publishes the local copy, then the remote result when fetch is set
// and succeeds. The fallback is used only when neither source had data.
func hydrate[T any](ctx context.Context, s *Store, c *collection[T], fetch func(context.Context) ([]T, error), fallback []T) {
	local, found := load[T](ctx, s, c.key)
	if found {
		c.set(local)
	}

	if fetch != nil {
		remote, err := fetch(ctx)
		if err == nil {
			c.set(remote)
			s.persist(ctx, c.key, remote)
			return
		}
		s.logger.Warn("Remote fetch failed, using fallback",
			zap.String("collection", c.key),
			zap.Bool("local_copy", found),
			zap.Error(err),
		)
	}

	if !found {
		if fallback == nil {
			fallback = []T{}
		}
		c.set(fallback)
		s.persist(ctx, c.key, fallback)
	}
}

func load[T any](ctx context.Context, s *Store, key string) ([]T, bool) {
	raw, err := s.local.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, localstore.ErrNotFound) {
			s.logger.Warn("Failed to read local copy", zap.String("collection", key), zap.Error(err))
		}
		return nil, false
	}

	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		s.logger.Warn("Discarding unreadable local copy", zap.String("collection", key), zap.Error(err))
		return nil, false
	}
	if items == nil {
		items = []T{}
	}
	return items, true
}

func (s *Store) write(ctx context.Context, key string, items any) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.local.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrPersistence, key, err)
	}
	return nil
}

// persist writes a snapshot whose in-memory state must stand regardless
func (s *Store) persist(ctx context.Context, key string, items any) {
	if err := s.write(ctx, key, items); err != nil {
		s.logger.Warn("Failed to persist local copy", zap.String("collection", key), zap.Error(err))
	}
}

// mutateLocal applies fn to a local-only collection and persists the result.
// The in-memory state only changes when the write succeeds.
func mutateLocal[T any](ctx context.Context, s *Store, c *collection[T], fn func([]T) ([]T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := fn(slices.Clone(c.committed))
	if err != nil {
		return err
	}
	if err := s.write(ctx, c.key, next); err != nil {
		return err
	}
	c.committed = next
	c.items = c.replay()
	return nil
}

// optimistic publishes the change prepared from the current state, runs the
// remote write, and withdraws only that change if the write fails. Local
// storage receives the committed state, so it never holds a change the
// remote has not confirmed.
func optimistic[T any](ctx context.Context, s *Store, c *collection[T], prepare func([]T) (func([]T) []T, error), remote func(context.Context) error) error {
	c.mu.Lock()
	apply, err := prepare(slices.Clone(c.items))
	if err != nil {
		c.mu.Unlock()
		return err
	}
	ch := &change[T]{apply: apply}
	c.pending = append(c.pending, ch)
	c.items = apply(c.items)
	c.mu.Unlock()

	rctx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
	defer cancel()
	remoteErr := remote(rctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.drop(ch)

	if remoteErr != nil {
		c.items = c.replay()
		s.logger.Warn("Remote write failed, rolled back",
			zap.String("collection", c.key),
			zap.Error(remoteErr),
		)
		return remoteErr
	}

	c.committed = apply(slices.Clone(c.committed))
	c.items = c.replay()
	s.persist(ctx, c.key, c.committed)
	return nil
}

func (s *Store) fetchProducts(ctx context.Context) ([]domain.Product, error) {
	rctx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
	defer cancel()

	products, err := s.catalog.ListProducts(rctx)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}

func (s *Store) fetchCategories(ctx context.Context) ([]domain.Category, error) {
	rctx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
	defer cancel()

	categories, err := s.catalog.ListCategories(rctx)
	if err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		return nil, errEmptyRemote
	}
	return categories, nil
}

// refreshProducts reconciles the product collection with the remote after a
// successful write. A failed refetch keeps the optimistic state.
func (s *Store) refreshProducts(ctx context.Context) {
	products, err := s.fetchProducts(ctx)
	if err != nil {
		s.logger.Warn("Product refetch failed", zap.Error(err))
		return
	}
	s.products.set(products)
	s.persist(ctx, KeyProducts, products)
}

// Suppliers returns a snapshot of the supplier collection
func (s *Store) Suppliers() []domain.Party { return s.suppliers.get() }

// Customers returns a snapshot of the customer collection
func (s *Store) Customers() []domain.Party { return s.customers.get() }

// Products returns the products in remote fetch order
func (s *Store) Products() []domain.Product { return s.products.get() }

func (s *Store) Categories() []domain.Category { return s.categories.get() }

func (s *Store) Orders() []domain.Order { return s.orders.get() }

type offlineCatalog struct{}

func (offlineCatalog) ListProducts(context.Context) ([]domain.Product, error) {
	return nil, domain.ErrRemoteUnavailable
}
func (offlineCatalog) InsertProducts(context.Context, []domain.Product) error {
	return domain.ErrRemoteUnavailable
}
func (offlineCatalog) UpdateProduct(context.Context, domain.Product) error {
	return domain.ErrRemoteUnavailable
}
func (offlineCatalog) DeleteProduct(context.Context, string) error {
	return domain.ErrRemoteUnavailable
}
func (offlineCatalog) ListCategories(context.Context) ([]domain.Category, error) {
	return nil, domain.ErrRemoteUnavailable
}
func (offlineCatalog) InsertCategory(context.Context, domain.Category) error {
	return domain.ErrRemoteUnavailable
}
func (offlineCatalog) UpdateCategory(context.Context, domain.Category) error {
	return domain.ErrRemoteUnavailable
}
func (offlineCatalog) DeleteCategory(context.Context, string) error {
	return domain.ErrRemoteUnavailable
}
