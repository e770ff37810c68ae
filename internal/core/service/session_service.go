package service

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/opsdesk/opsdesk/internal/core/domain"
	"github.com/opsdesk/opsdesk/internal/core/ports"
)

// SessionOptions controls session manager policy.
type SessionOptions struct {
	// StrictValidation forces logout when the startup validation call fails
	// at the transport level. The default keeps the persisted session in a
	// degraded, optimistic-trust mode so a flaky network does not eject an
	// already-established user.
	StrictValidation bool
}

// SessionManager owns the client session: startup hydration, login, the
// mandatory first-login password reset, and logout. It is the only component
// that mutates session state. One instance per process; all operations are
// serialized by a single mutex so a logout cannot clear a session a
// concurrent login just established.
type SessionManager struct {
	client ports.AuthClient
	store  ports.CredentialStore
	opts   SessionOptions
	logger zerolog.Logger

	mu       sync.Mutex
	state    domain.SessionState
	identity *domain.Identity
	token    string
	// pendingResetSecret is the plaintext password from the most recent
	// successful login, retained only while the identity is in first-login
	// state. The reset endpoint requires re-submission of the current
	// password. Never persisted, never logged.
	pendingResetSecret string
}

func NewSessionManager(client ports.AuthClient, store ports.CredentialStore, opts SessionOptions, logger zerolog.Logger) *SessionManager {
	return &SessionManager{
		client: client,
		store:  store,
		opts:   opts,
		logger: logger,
		state:  domain.StateHydrating,
	}
}

// Hydrate restores the session from the credential store, validating the
// persisted token against the auth service. Invoked once per process start,
// before any other operation.
//
// Outcomes:
//   - empty store: unauthenticated, no network call.
//   - token confirmed: session restored.
//   - token rejected: store cleared, redirect signal returned.
//   - auth service unreachable: the persisted snapshot is trusted without
//     confirmation (degraded), unless StrictValidation is set.
func (m *SessionManager) Hydrate(ctx context.Context) ports.HydrationResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	identity, token, ok := m.store.Load(ctx)
	if !ok {
		m.transition(domain.StateUnauthenticated)
		return ports.HydrationResult{}
	}

	remote, err := m.client.FetchIdentity(ctx, token)
	switch {
	case err == nil:
		// Prefer the remote record; it is canonical.
		m.setSession(ctx, remote, token, "")
		m.logger.Info().Str("user_id", remote.ID).Msg("session restored")
		return ports.HydrationResult{Authenticated: true}

	case errors.Is(err, domain.ErrAuthUnavailable) && !m.opts.StrictValidation:
		m.setSession(ctx, identity, token, "")
		m.logger.Warn().Str("user_id", identity.ID).Msg("auth service unreachable, trusting persisted session")
		return ports.HydrationResult{Authenticated: true, Degraded: true}

	case errors.Is(err, domain.ErrAuthUnavailable):
		// Strict validation: an unconfirmed session is cleared, but the
		// token was not rejected and the caller must not report it as such.
		m.logger.Warn().Err(err).Msg("auth service unreachable in strict mode, clearing session")
		m.clearSession(ctx)
		return ports.HydrationResult{
			RedirectRequired: true,
			RedirectReason:   ports.RedirectReasonValidationUnavailable,
		}

	default:
		m.logger.Info().Err(err).Msg("persisted token rejected, clearing session")
		m.clearSession(ctx)
		return ports.HydrationResult{
			RedirectRequired: true,
			RedirectReason:   ports.RedirectReasonTokenRejected,
		}
	}
}

// Login exchanges credentials for a token and fetches the canonical identity.
// Token and identity are acquired atomically from the caller's perspective:
// if the identity fetch fails the whole attempt fails and no partial session
// is left behind.
func (m *SessionManager) Login(ctx context.Context, email, password string) ports.LoginResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	token, err := m.client.Login(ctx, email, password)
	if err != nil {
		m.logger.Info().Str("email", email).Msg("login rejected")
		return ports.LoginResult{Message: loginFailureMessage(err)}
	}

	identity, err := m.client.FetchIdentity(ctx, token)
	if err != nil {
		m.logger.Error().Err(err).Msg("identity fetch failed after login")
		return ports.LoginResult{Message: "could not load account details"}
	}

	secret := ""
	if identity.FirstLogin {
		secret = password
	}
	m.setSession(ctx, identity, token, secret)
	m.logger.Info().Str("user_id", identity.ID).Str("role", string(identity.Role)).Bool("first_login", identity.FirstLogin).Msg("login succeeded")

	return ports.LoginResult{Success: true, FirstLoginRequired: identity.FirstLogin}
}

// ResetPassword completes the mandatory first-login password change. It
// requires an authenticated session in first-login state with the login
// password still retained; anything else is a caller bug and fails without
// contacting the auth service. On rejection all state is kept so the user
// can retry.
func (m *SessionManager) ResetPassword(ctx context.Context, newPassword string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.identity == nil || !m.identity.FirstLogin || m.pendingResetSecret == "" {
		m.logger.Error().Err(domain.ErrResetNotPending).Msg("reset precondition violated")
		return false
	}

	if err := m.client.ResetPassword(ctx, m.token, m.pendingResetSecret, newPassword); err != nil {
		m.logger.Info().Err(err).Msg("password reset rejected")
		return false
	}

	m.identity.FirstLogin = false
	m.pendingResetSecret = ""
	m.persist(ctx)
	m.transition(domain.StateActive)
	m.logger.Info().Str("user_id", m.identity.ID).Msg("first-login password reset completed")
	return true
}

// Logout tears the session down and clears the credential store. Idempotent;
// the store is cleared defensively even when the session is already empty.
func (m *SessionManager) Logout(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.clearSession(ctx)
	m.logger.Info().Msg("logged out")
}

// State returns the current session state.
func (m *SessionManager) State() domain.SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsAuthenticated reports whether an identity is present. A first-login
// session counts as authenticated; check ResetRequired separately before
// granting full interactive access.
func (m *SessionManager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.identity != nil
}

// ResetRequired reports whether the session is gated on the mandatory
// password change.
func (m *SessionManager) ResetRequired() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.identity != nil && m.identity.FirstLogin
}

// Identity returns a copy of the current identity, or nil.
func (m *SessionManager) Identity() *domain.Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.identity == nil {
		return nil
	}
	clone := *m.identity
	return &clone
}

// Token returns the current bearer token, or empty.
func (m *SessionManager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// setSession populates the in-memory session and persists the snapshot.
// Callers hold the mutex.
func (m *SessionManager) setSession(ctx context.Context, identity *domain.Identity, token, secret string) {
	clone := *identity
	m.identity = &clone
	m.token = token
	m.pendingResetSecret = secret
	m.persist(ctx)

	if clone.FirstLogin {
		m.transition(domain.StateResetRequired)
	} else {
		m.transition(domain.StateActive)
	}
}

// clearSession empties all session fields and the store. Callers hold the mutex.
func (m *SessionManager) clearSession(ctx context.Context) {
	m.identity = nil
	m.token = ""
	m.pendingResetSecret = ""
	if err := m.store.Clear(ctx); err != nil {
		m.logger.Warn().Err(err).Msg("credential store clear failed")
	}
	m.transition(domain.StateUnauthenticated)
}

// persist mirrors the session to the credential store. A write failure
// degrades to a memory-only session rather than failing the operation.
// Callers hold the mutex.
func (m *SessionManager) persist(ctx context.Context) {
	if err := m.store.Save(ctx, m.identity, m.token); err != nil {
		m.logger.Warn().Err(err).Msg("credential store save failed, session is memory-only")
	}
}

// transition moves the state machine, logging transitions the table does not
// allow. Same-state writes are silent no-ops.
func (m *SessionManager) transition(next domain.SessionState) {
	if m.state == next {
		return
	}
	if !m.state.CanTransitionTo(next) {
		m.logger.Warn().Str("from", string(m.state)).Str("to", string(next)).Msg("unexpected session state transition")
	}
	m.state = next
}

func loginFailureMessage(err error) string {
	if errors.Is(err, domain.ErrAuthUnavailable) {
		return "auth service unavailable, try again"
	}
	return "invalid email or password"
}
