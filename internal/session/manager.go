// Package session resolves the current actor by combining the remote auth
// session with the locally stored profile.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"tanepro-b2b/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is the resolution state of a Manager
type State int

const (
	Unresolved State = iota
	Resolving
	Authenticated
	Anonymous
)

func (s State) String() string {
	switch s {
	case Unresolved:
		return "unresolved"
	case Resolving:
		return "resolving"
	case Authenticated:
		return "authenticated"
	case Anonymous:
		return "anonymous"
	}
	return "unknown"
}

// Snapshot is what subscribers receive on every state change
type Snapshot struct {
	State   State
	Profile *domain.UserProfile
	Loading bool
}

// PartyMirror records registered suppliers and customers in their collections
type PartyMirror interface {
	MirrorProfile(ctx context.Context, profile domain.UserProfile) error
}

// RegisterInput is the data collected at sign-up
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Role     domain.Role
	Phone    string
	TabdkNo  string
	Address  string
}

// Manager owns the identity of one client
type Manager struct {
	remote   RemoteAuth
	profiles *ProfileStore
	cache    Cache
	mirror   PartyMirror
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string

	mu        sync.RWMutex
	state     State
	current   *domain.UserProfile
	tokens    domain.Tokens
	listeners map[int]func(Snapshot)
	nextID    int
}

// Option configures a Manager
type Option func(*Manager)

func WithMirror(mirror PartyMirror) Option {
	return func(m *Manager) { m.mirror = mirror }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(m *Manager) { m.newID = newID }
}

func NewManager(remote RemoteAuth, profiles *ProfileStore, cache Cache, logger *zap.Logger, opts ...Option) *Manager {
	m := &Manager{
		remote:    remote,
		profiles:  profiles,
		cache:     cache,
		logger:    logger,
		now:       time.Now,
		newID:     func() string { return uuid.Must(uuid.NewV7()).String() },
		state:     Unresolved,
		listeners: make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Current returns the resolved profile
func (m *Manager) Current() (domain.UserProfile, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return domain.UserProfile{}, false
	}
	return *m.current, true
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Loading reports whether the identity is not yet known
func (m *Manager) Loading() bool {
	s := m.State()
	return s == Unresolved || s == Resolving
}

// Tokens returns the remote credentials of the current session
func (m *Manager) Tokens() domain.Tokens {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tokens
}

// Subscribe registers fn for state changes and returns a function that
// removes it
func (m *Manager) Subscribe(fn func(Snapshot)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

// Watch re-resolves the session on every remote auth state change until the
// returned function is called
func (m *Manager) Watch(ctx context.Context) func() {
	return m.remote.OnAuthStateChange(func(event domain.AuthEvent, _ *domain.AuthSession) {
		m.logger.Debug("Auth state changed", zap.String("event", string(event)))
		if err := m.ResolveSession(ctx); err != nil {
			m.logger.Warn("Failed to resolve session after auth event", zap.Error(err))
		}
	})
}

func (m *Manager) publish(state State, profile *domain.UserProfile, tokens domain.Tokens) {
	m.mu.Lock()
	m.state = state
	m.current = profile
	m.tokens = tokens
	snap := Snapshot{State: state, Profile: profile, Loading: state == Unresolved || state == Resolving}
	listeners := make([]func(Snapshot), 0, len(m.listeners))
	for _, fn := range m.listeners {
		listeners = append(listeners, fn)
	}
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

func (m *Manager) setResolving() {
	m.mu.RLock()
	profile, tokens := m.current, m.tokens
	m.mu.RUnlock()
	m.publish(Resolving, profile, tokens)
}

// ResolveSession derives the current identity. A remote session is merged
// with the local profile and cached; no session clears the cache. A session
// granted by the local fallback stays valid while its profile exists.
func (m *Manager) ResolveSession(ctx context.Context) error {
	m.setResolving()

	cached, err := m.cache.Load(ctx)
	if err != nil {
		m.logger.Warn("Failed to load cached session", zap.Error(err))
		cached = nil
	}

	if cached != nil && cached.Source == SourceLocal {
		profile, err := m.profiles.FindByID(ctx, cached.Profile.ID)
		if err == nil {
			return m.adoptLocal(ctx, profile)
		}
		if errors.Is(err, domain.ErrProfileNotFound) {
			m.logger.Info("Cached local session has no profile", zap.String("user_id", cached.Profile.ID))
		} else {
			m.logger.Warn("Failed to read local profile", zap.String("user_id", cached.Profile.ID), zap.Error(err))
		}
		return m.clear(ctx)
	}

	var tokens domain.Tokens
	if cached != nil {
		tokens = cached.Tokens
	}

	session, err := m.remote.GetSession(ctx, tokens)
	if err != nil {
		m.logger.Warn("Remote session lookup failed", zap.Error(err))
		session = nil
	}
	if session == nil {
		return m.clear(ctx)
	}
	return m.adopt(ctx, session)
}

// adopt merges a remote session with the local profile. Local profile values
// win over the session metadata.
func (m *Manager) adopt(ctx context.Context, session *domain.AuthSession) error {
	profile, err := m.profiles.FindByID(ctx, session.User.ID)
	if err != nil {
		profile, err = m.profiles.FindByEmail(ctx, session.User.Email)
	}
	if err != nil && !errors.Is(err, domain.ErrProfileNotFound) {
		m.logger.Warn("Failed to read local profile", zap.Error(err))
	}

	merged := domain.UserProfile{
		ID:        session.User.ID,
		Email:     session.User.Email,
		Name:      firstNonEmpty(profile.Name, session.User.Metadata.Name),
		Role:      domain.Role(firstNonEmpty(string(profile.Role), string(session.User.Metadata.Role), string(domain.RoleCustomer))),
		Phone:     profile.Phone,
		TabdkNo:   profile.TabdkNo,
		Address:   profile.Address,
		CreatedAt: profile.CreatedAt,
	}
	if merged.CreatedAt.IsZero() {
		merged.CreatedAt = m.now()
	}

	if err := m.cache.Save(ctx, Cached{Profile: merged, Tokens: session.Tokens, Source: SourceRemote}); err != nil {
		m.logger.Warn("Failed to cache session", zap.Error(err))
	}
	m.publish(Authenticated, &merged, session.Tokens)
	return nil
}

func (m *Manager) adoptLocal(ctx context.Context, profile domain.UserProfile) error {
	if err := m.cache.Save(ctx, Cached{Profile: profile, Source: SourceLocal}); err != nil {
		m.logger.Warn("Failed to cache session", zap.Error(err))
	}
	m.publish(Authenticated, &profile, domain.Tokens{})
	return nil
}

func (m *Manager) clear(ctx context.Context) error {
	if err := m.cache.Clear(ctx); err != nil {
		m.logger.Warn("Failed to clear cached session", zap.Error(err))
	}
	m.publish(Anonymous, nil, domain.Tokens{})
	return nil
}

// Login signs in remotely, falling back to the local profiles when the remote
// rejects or cannot be reached. The returned error matches
// domain.ErrInvalidCredentials when both fail.
func (m *Manager) Login(ctx context.Context, email, password string) (domain.UserProfile, error) {
	session, remoteErr := m.remote.SignInWithPassword(ctx, email, password)
	if remoteErr == nil && session != nil {
		if err := m.adopt(ctx, session); err != nil {
			return domain.UserProfile{}, err
		}
		profile, _ := m.Current()
		return profile, nil
	}

	profile, err := m.profiles.Authenticate(ctx, email, password)
	if err == nil {
		m.logger.Info("Signed in with local profile",
			zap.String("user_id", profile.ID),
			zap.NamedError("remote_error", remoteErr),
		)
		if err := m.adoptLocal(ctx, profile); err != nil {
			return domain.UserProfile{}, err
		}
		return profile, nil
	}
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		m.logger.Error("Local sign-in failed", zap.String("email", email), zap.Error(err))
		return domain.UserProfile{}, fmt.Errorf("local sign-in failed: %w", err)
	}

	var authErr *domain.AuthError
	if errors.As(remoteErr, &authErr) {
		return domain.UserProfile{}, &domain.AuthError{Message: authErr.Message}
	}
	return domain.UserProfile{}, &domain.AuthError{}
}

// Register creates a profile. The remote account id becomes the profile id
// when the remote sign-up succeeds; otherwise a time-ordered id is generated.
// It fails with domain.ErrDuplicateEmail when the email is already taken
// locally.
func (m *Manager) Register(ctx context.Context, in RegisterInput) (domain.UserProfile, error) {
	_, err := m.profiles.FindByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return domain.UserProfile{}, domain.ErrDuplicateEmail
	case !errors.Is(err, domain.ErrProfileNotFound):
		return domain.UserProfile{}, err
	}

	role := in.Role
	if role == "" {
		role = domain.RoleCustomer
	}

	profile := domain.UserProfile{
		ID:        m.newID(),
		Name:      in.Name,
		Email:     in.Email,
		Role:      role,
		Phone:     in.Phone,
		TabdkNo:   in.TabdkNo,
		Address:   in.Address,
		CreatedAt: m.now(),
	}

	user, err := m.remote.SignUp(ctx, in.Email, in.Password, domain.Metadata{Name: in.Name, Role: role})
	switch {
	case err != nil:
		m.logger.Info("Remote sign-up failed, registering locally", zap.String("email", in.Email), zap.Error(err))
	case user != nil && user.ID != "":
		profile.ID = user.ID
	}

	if err := m.profiles.Create(ctx, profile, in.Password); err != nil {
		return domain.UserProfile{}, err
	}

	if m.mirror != nil {
		if err := m.mirror.MirrorProfile(ctx, profile); err != nil {
			m.logger.Warn("Failed to mirror registered profile", zap.String("user_id", profile.ID), zap.Error(err))
		}
	}
	return profile, nil
}

// Logout signs out remotely on a best-effort basis and always forgets the
// local session.
func (m *Manager) Logout(ctx context.Context) error {
	tokens := m.Tokens()
	if cached, err := m.cache.Load(ctx); err == nil && cached != nil && tokens == (domain.Tokens{}) {
		tokens = cached.Tokens
	}

	if tokens != (domain.Tokens{}) {
		if err := m.remote.SignOut(ctx, tokens); err != nil {
			m.logger.Warn("Remote sign-out failed", zap.Error(err))
		}
	}
	return m.clear(ctx)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
