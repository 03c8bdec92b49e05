package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/http"

	"tanepro-b2b/internal/domain"
	"tanepro-b2b/internal/session"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	// SessionCookieName is the cookie holding the cached session
	SessionCookieName = "tanepro_session"
	sessionValueKey   = "user"
	sessionMaxAge     = 7 * 24 * 60 * 60
)

type contextKey string

const managerKey contextKey = "session_manager"

// NewCookieStore returns the cookie store of the session cache. Separate
// signing and encryption keys are derived from key.
func NewCookieStore(key []byte, secure bool) *sessions.CookieStore {
	hashKey := sha256.Sum256(append([]byte("hash:"), key...))
	blockKey := sha256.Sum256(append([]byte("block:"), key...))

	store := sessions.NewCookieStore(hashKey[:], blockKey[:])
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// CookieCache is a session.Cache kept in the client's session cookie
type CookieCache struct {
	store sessions.Store
	name  string
	r     *http.Request
	w     http.ResponseWriter
}

func NewCookieCache(store sessions.Store, name string, r *http.Request, w http.ResponseWriter) *CookieCache {
	return &CookieCache{store: store, name: name, r: r, w: w}
}

// get returns the cookie session. A cookie that fails to decode yields a
// fresh session.
func (c *CookieCache) get() *sessions.Session {
	s, _ := c.store.Get(c.r, c.name)
	if s == nil {
		s = sessions.NewSession(c.store, c.name)
		s.IsNew = true
	}
	if s.Options == nil {
		s.Options = &sessions.Options{Path: "/", MaxAge: sessionMaxAge, HttpOnly: true}
	}
	return s
}

func (c *CookieCache) Load(context.Context) (*session.Cached, error) {
	raw, ok := c.get().Values[sessionValueKey].(string)
	if !ok {
		return nil, nil
	}

	var cached session.Cached
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		return nil, nil
	}
	return &cached, nil
}

func (c *CookieCache) Save(_ context.Context, cached session.Cached) error {
	raw, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	s := c.get()
	if existing, ok := s.Values[sessionValueKey].(string); ok && existing == string(raw) {
		return nil
	}
	s.Values[sessionValueKey] = string(raw)
	// a clear earlier in the same request expired the cookie
	if s.Options.MaxAge < 0 {
		s.Options.MaxAge = sessionMaxAge
	}
	if err := s.Save(c.r, c.w); err != nil {
		return fmt.Errorf("%w: session cookie: %w", domain.ErrPersistence, err)
	}
	return nil
}

func (c *CookieCache) Clear(context.Context) error {
	s := c.get()
	if _, ok := s.Values[sessionValueKey]; !ok && s.IsNew {
		return nil
	}

	delete(s.Values, sessionValueKey)
	s.Options.MaxAge = -1
	return s.Save(c.r, c.w)
}

// SessionConfig wires the per-request session manager
type SessionConfig struct {
	Remote   session.RemoteAuth
	Profiles *session.ProfileStore
	Mirror   session.PartyMirror
	Store    sessions.Store
	// CookieName defaults to SessionCookieName
	CookieName string
}

// SessionMiddleware builds a session.Manager bound to the client's cookie,
// resolves the session and stores the manager in the request context.
func SessionMiddleware(cfg SessionConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	name := cfg.CookieName
	if name == "" {
		name = SessionCookieName
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var opts []session.Option
			if cfg.Mirror != nil {
				opts = append(opts, session.WithMirror(cfg.Mirror))
			}
			manager := session.NewManager(cfg.Remote, cfg.Profiles, NewCookieCache(cfg.Store, name, r, w), logger, opts...)

			if err := manager.ResolveSession(r.Context()); err != nil {
				logger.Warn("Failed to resolve session", zap.Error(err))
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), manager)))
		})
	}
}

// WithSession returns a context carrying manager
func WithSession(ctx context.Context, manager *session.Manager) context.Context {
	return context.WithValue(ctx, managerKey, manager)
}

// SessionFrom returns the session manager of the request
func SessionFrom(ctx context.Context) (*session.Manager, bool) {
	manager, ok := ctx.Value(managerKey).(*session.Manager)
	return manager, ok && manager != nil
}

// CurrentProfile returns the authenticated profile of the request
func CurrentProfile(ctx context.Context) (domain.UserProfile, bool) {
	manager, ok := SessionFrom(ctx)
	if !ok {
		return domain.UserProfile{}, false
	}
	return manager.Current()
}

// GetUserID extracts the authenticated user id from the context
func GetUserID(ctx context.Context) (string, bool) {
	profile, ok := CurrentProfile(ctx)
	if !ok {
		return "", false
	}
	return profile.ID, true
}

// RequireAuth rejects requests without an authenticated session
func RequireAuth(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := CurrentProfile(r.Context()); !ok {
				logger.Debug("Unauthenticated request", zap.String("path", r.URL.Path))
				RespondWithError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
