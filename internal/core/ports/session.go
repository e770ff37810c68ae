package ports

// Redirect reasons reported by hydration. The hosting application decides
// whether the current surface is on the public allow-list before acting.
const (
	// RedirectReasonTokenRejected: the auth service explicitly refused the
	// persisted token.
	RedirectReasonTokenRejected = "token_rejected"
	// RedirectReasonValidationUnavailable: the validation call failed at the
	// transport level and strict validation forbids trusting the snapshot.
	RedirectReasonValidationUnavailable = "validation_unavailable"
)

// HydrationResult is the outcome of startup hydration.
type HydrationResult struct {
	// Authenticated reports whether a session was established.
	Authenticated bool
	// Degraded is set when the persisted snapshot was trusted without remote
	// confirmation because the auth service was unreachable.
	Degraded bool
	// RedirectRequired signals the caller to navigate to the login entry
	// point, unless the current location is an unauthenticated-allowed
	// surface. Checking the allow-list is the caller's job.
	RedirectRequired bool
	RedirectReason   string
}

// LoginResult is the outcome of a login attempt. Message is for display
// only and must never drive control flow.
type LoginResult struct {
	Success            bool
	FirstLoginRequired bool
	Message            string
}
