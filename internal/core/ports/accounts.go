package ports

import (
	"context"

	"github.com/opsdesk/opsdesk/internal/core/domain"
)

// AccountService is the dev auth service's business logic: credential
// verification, token issuance, and the mandatory first-login password change.
type AccountService interface {
	Authenticate(ctx context.Context, email, password string) (string, error)
	Identity(ctx context.Context, userID string) (*domain.Identity, error)
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
	CreateUser(ctx context.Context, input CreateUserInput) (*domain.User, error)
}

// CreateUserInput carries the fields for admin-driven onboarding. The account
// starts with a temporary password and FirstLogin set.
type CreateUserInput struct {
	DisplayName  string
	Email        string
	TempPassword string
	Role         domain.Role
	// LinkRecord requests generation of a role-specific profile reference.
	LinkRecord bool
}

// UserRepository defines the interface for account persistence.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// UpdatePassword stores a new password hash and the first-login flag.
	UpdatePassword(ctx context.Context, id, passwordHash string, firstLogin bool) error
}
