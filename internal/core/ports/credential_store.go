package ports

import (
	"context"

	"github.com/opsdesk/opsdesk/internal/core/domain"
)

// CredentialStore persists the identity snapshot and bearer token between
// runs of the client installation. Single consumer, no locking expected.
type CredentialStore interface {
	// Save replaces both values. No merge semantics.
	Save(ctx context.Context, identity *domain.Identity, token string) error
	// Load returns both values or reports absent. Missing or unparsable
	// values on either side yield ok == false (fail closed).
	Load(ctx context.Context) (identity *domain.Identity, token string, ok bool)
	// Clear removes both values. Idempotent.
	Clear(ctx context.Context) error
}
