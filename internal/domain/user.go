package domain

import "time"

// Role is the actor kind of a user profile
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleSupplier Role = "supplier"
	RoleCustomer Role = "customer"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSupplier, RoleCustomer:
		return true
	}
	return false
}

// UserProfile is the locally held identity of an actor. One profile per email;
// the role never changes after creation.
type UserProfile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	Phone     string    `json:"phone"`
	TabdkNo   string    `json:"tabdkNo"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"createdAt"`
}

// Party returns the supplier/customer view of the profile
func (p UserProfile) Party() Party {
	return Party{
		ID:        p.ID,
		Name:      p.Name,
		Phone:     p.Phone,
		Email:     p.Email,
		TabdkNo:   p.TabdkNo,
		Address:   p.Address,
		CreatedAt: p.CreatedAt,
	}
}

// Metadata is the profile data embedded in a remote auth account
type Metadata struct {
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// User is an account held by the remote auth service
type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Name         string    `json:"name" db:"name"`
	Role         Role      `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// RefreshToken is an opaque, revocable token issued by the remote auth service
type RefreshToken struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Token     string    `json:"token" db:"token"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	Revoked   bool      `json:"revoked" db:"revoked"`
}

// Tokens are the credentials a client presents to the remote auth service
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AuthUser is the account view carried inside an auth session
type AuthUser struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	Metadata Metadata `json:"metadata"`
}

// AuthSession is an active remote session
type AuthSession struct {
	Tokens
	ExpiresAt time.Time `json:"expiresAt"`
	User      AuthUser  `json:"user"`
}

// AuthEvent names a remote session change
type AuthEvent string

const (
	AuthEventSignedIn  AuthEvent = "SIGNED_IN"
	AuthEventSignedOut AuthEvent = "SIGNED_OUT"
	AuthEventRefreshed AuthEvent = "TOKEN_REFRESHED"
)
