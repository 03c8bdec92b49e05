package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"tanepro-b2b/internal/domain"
	"tanepro-b2b/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the cost factor for remote password hashes
	BcryptCost = 10

	// Default token lifetimes
	AccessTokenExpiration  = 15 * time.Minute
	RefreshTokenExpiration = 7 * 24 * time.Hour

	msgInvalidLogin      = "Invalid login credentials"
	msgAlreadyRegistered = "User already registered"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token has expired")
)

// Claims represents the JWT claims of an access token
type Claims struct {
	UserID string      `json:"user_id"`
	Email  string      `json:"email"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// AuthConfig configures token signing and lifetimes
type AuthConfig struct {
	JWTSecret     string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	HashCost      int
}

// AuthService is the hosted authentication provider: accounts in auth_users,
// HS256 access tokens and opaque refresh tokens. It implements
// session.RemoteAuth.
type AuthService struct {
	users  repository.UserRepository
	tokens repository.RefreshTokenRepository
	cfg    AuthConfig
	logger *zap.Logger
	now    func() time.Time

	mu        sync.RWMutex
	listeners map[int]func(domain.AuthEvent, *domain.AuthSession)
	nextID    int
}

// NewAuthService creates a new AuthService. Zero lifetimes and cost fall
// back to the defaults.
func NewAuthService(
	users repository.UserRepository,
	tokens repository.RefreshTokenRepository,
	cfg AuthConfig,
	logger *zap.Logger,
	opts ...AuthOption,
) *AuthService {
	if cfg.AccessExpiry == 0 {
		cfg.AccessExpiry = AccessTokenExpiration
	}
	if cfg.RefreshExpiry == 0 {
		cfg.RefreshExpiry = RefreshTokenExpiration
	}
	if cfg.HashCost == 0 {
		cfg.HashCost = BcryptCost
	}
	s := &AuthService{
		users:     users,
		tokens:    tokens,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
		listeners: make(map[int]func(domain.AuthEvent, *domain.AuthSession)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AuthOption configures an AuthService
type AuthOption func(*AuthService)

func WithAuthClock(now func() time.Time) AuthOption {
	return func(s *AuthService) { s.now = now }
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrRemoteUnavailable, op, err)
}

// SignUp creates an account. The metadata role defaults to customer.
func (s *AuthService) SignUp(ctx context.Context, email, password string, metadata domain.Metadata) (*domain.AuthUser, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.HashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role := metadata.Role
	if role == "" {
		role = domain.RoleCustomer
	}

	now := s.now()
	user := &domain.User{
		ID:           uuid.Must(uuid.NewV7()).String(),
		Email:        email,
		PasswordHash: string(hashedPassword),
		Name:         metadata.Name,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, fmt.Errorf("%s: %w", msgAlreadyRegistered, err)
		}
		return nil, unavailable("sign up", err)
	}

	s.logger.Info("Account created", zap.String("user_id", user.ID), zap.String("role", string(role)))
	authUser := toAuthUser(user)
	return &authUser, nil
}

// SignInWithPassword verifies the credentials and opens a session
func (s *AuthService) SignInWithPassword(ctx context.Context, email, password string) (*domain.AuthSession, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, &domain.AuthError{Message: msgInvalidLogin}
		}
		return nil, unavailable("sign in", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, &domain.AuthError{Message: msgInvalidLogin}
	}

	session, err := s.openSession(ctx, user)
	if err != nil {
		return nil, err
	}
	s.emit(domain.AuthEventSignedIn, session)
	return session, nil
}

// GetSession returns the session of tokens. An expired access token is
// renewed with the refresh token. Invalid or revoked tokens mean no session.
func (s *AuthService) GetSession(ctx context.Context, tokens domain.Tokens) (*domain.AuthSession, error) {
	if tokens.AccessToken == "" && tokens.RefreshToken == "" {
		return nil, nil
	}

	if claims, err := s.ValidateToken(tokens.AccessToken); err == nil {
		user, err := s.users.FindByID(ctx, claims.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return nil, nil
			}
			return nil, unavailable("get session", err)
		}
		return &domain.AuthSession{
			Tokens:    tokens,
			ExpiresAt: claims.ExpiresAt.Time,
			User:      toAuthUser(user),
		}, nil
	}

	if tokens.RefreshToken == "" {
		return nil, nil
	}
	session, err := s.refresh(ctx, tokens.RefreshToken)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrTokenExpired) {
			return nil, nil
		}
		return nil, err
	}
	s.emit(domain.AuthEventRefreshed, session)
	return session, nil
}

// SignOut revokes the refresh token. Unknown tokens count as signed out.
func (s *AuthService) SignOut(ctx context.Context, tokens domain.Tokens) error {
	if tokens.RefreshToken != "" {
		err := s.tokens.Revoke(ctx, tokens.RefreshToken)
		if err != nil && !errors.Is(err, repository.ErrRefreshTokenNotFound) {
			return unavailable("sign out", err)
		}
	}
	s.emit(domain.AuthEventSignedOut, nil)
	return nil
}

// OnAuthStateChange registers a listener for session changes
func (s *AuthService) OnAuthStateChange(listener func(domain.AuthEvent, *domain.AuthSession)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = listener
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *AuthService) emit(event domain.AuthEvent, session *domain.AuthSession) {
	s.mu.RLock()
	listeners := make([]func(domain.AuthEvent, *domain.AuthSession), 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.RUnlock()

	for _, l := range listeners {
		l(event, session)
	}
}

// ValidateToken validates an access token and returns its claims
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *AuthService) refresh(ctx context.Context, refreshToken string) (*domain.AuthSession, error) {
	stored, err := s.tokens.FindByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) || errors.Is(err, repository.ErrRefreshTokenRevoked) {
			return nil, ErrInvalidToken
		}
		return nil, unavailable("refresh session", err)
	}

	if s.now().After(stored.ExpiresAt) {
		return nil, ErrTokenExpired
	}

	user, err := s.users.FindByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, unavailable("refresh session", err)
	}

	accessToken, expiresAt, err := s.generateAccessToken(user)
	if err != nil {
		return nil, err
	}
	return &domain.AuthSession{
		Tokens:    domain.Tokens{AccessToken: accessToken, RefreshToken: refreshToken},
		ExpiresAt: expiresAt,
		User:      toAuthUser(user),
	}, nil
}

func (s *AuthService) openSession(ctx context.Context, user *domain.User) (*domain.AuthSession, error) {
	accessToken, expiresAt, err := s.generateAccessToken(user)
	if err != nil {
		return nil, err
	}

	now := s.now()
	refreshToken := &domain.RefreshToken{
		ID:        uuid.Must(uuid.NewV7()).String(),
		UserID:    user.ID,
		Token:     uuid.New().String(),
		ExpiresAt: now.Add(s.cfg.RefreshExpiry),
		CreatedAt: now,
	}
	if err := s.tokens.Create(ctx, refreshToken); err != nil {
		return nil, unavailable("store refresh token", err)
	}

	return &domain.AuthSession{
		Tokens:    domain.Tokens{AccessToken: accessToken, RefreshToken: refreshToken.Token},
		ExpiresAt: expiresAt,
		User:      toAuthUser(user),
	}, nil
}

// generateAccessToken signs an HS256 token carrying the user id and role
func (s *AuthService) generateAccessToken(user *domain.User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.cfg.AccessExpiry)
	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign access token: %w", err)
	}
	return tokenString, expiresAt, nil
}

func toAuthUser(user *domain.User) domain.AuthUser {
	return domain.AuthUser{
		ID:       user.ID,
		Email:    user.Email,
		Metadata: domain.Metadata{Name: user.Name, Role: user.Role},
	}
}
