package domain

import (
	"context"
	"time"
)

// User represents a registered account.
// swagger:model User
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"` // E.164, may be empty
	AvatarURL    string    `json:"avatar_url"`
	PasswordHash string    `json:"-"`
	Salt         string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewUser returns a new User with the given fields. ID is set by the repository on create.
func NewUser(username, fullName, email, phone string, createdAt, updatedAt time.Time) *User {
	return &User{
		Username:  username,
		FullName:  fullName,
		Email:     email,
		Phone:     phone,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// PasswordHasher handles salt generation, hashing, and verification.
// Implementations may use bcrypt, argon2, etc.
type PasswordHasher interface {
	GenerateSalt() (string, error)
	Hash(salt, password string) (hash string, err error)
	Compare(hash, salt, password string) error
}

// TokenIssuer issues tokens (e.g. JWT) for an authenticated user.
type TokenIssuer interface {
	Issue(userID, username string, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the authenticated user ID.
type TokenVerifier interface {
	Verify(token string) (userID string, err error)
}

// UserRepository defines the interface for user storage.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByPhone(ctx context.Context, phone string) (*User, error)
	ListAll(ctx context.Context) ([]*User, error)
	Search(ctx context.Context, query string, params PaginationParams) ([]*User, int, error)
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, id string) error
}

// AuthService defines signup and login.
type AuthService interface {
	// SignUp creates the account and claims any event invitations previously
	// sent to the account's phone number.
	SignUp(ctx context.Context, username, password, fullName, email, phone string) (*User, error)
	Login(ctx context.Context, username, password string) (token string, user *User, err error)
}

// UserService defines profile and directory operations.
type UserService interface {
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	ListAll(ctx context.Context) ([]*User, error)
	Search(ctx context.Context, query string, params PaginationParams) ([]*User, int, error)
	UpdateProfile(ctx context.Context, userID, fullName, phone, avatarURL string) (*User, error)
	// DeleteAccount removes the user along with hosted events, attendance rows,
	// friendships, and friend requests.
	DeleteAccount(ctx context.Context, userID string) error
}
