package ports

import (
	"context"

	"github.com/opsdesk/opsdesk/internal/core/domain"
)

// AuthClient is the outbound interface to the auth service consumed by the
// session manager. Implementations classify failures with the domain
// sentinels: rejections map to ErrInvalidCredentials / ErrTokenInvalid /
// ErrResetRejected, transport-level failures to ErrAuthUnavailable.
type AuthClient interface {
	// Login exchanges credentials for a bearer token.
	Login(ctx context.Context, email, password string) (string, error)
	// FetchIdentity retrieves the canonical identity record for the token.
	FetchIdentity(ctx context.Context, token string) (*domain.Identity, error)
	// ResetPassword replaces the current password, re-proving knowledge of it.
	ResetPassword(ctx context.Context, token, currentPassword, newPassword string) error
}
