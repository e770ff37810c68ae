package domain

// SessionState represents the lifecycle state of the client session.
type SessionState string

const (
	// StateHydrating is the transitional startup state, before the persisted
	// snapshot has been checked. Distinct from unauthenticated so callers can
	// render a loading affordance instead of a login screen.
	StateHydrating       SessionState = "hydrating"
	StateUnauthenticated SessionState = "unauthenticated"
	// StateResetRequired means the principal is authenticated but must replace
	// a system-issued temporary password before normal use.
	StateResetRequired SessionState = "reset_required"
	StateActive        SessionState = "active"
)

// validTransitions defines the allowed state machine transitions.
var validTransitions = map[SessionState][]SessionState{
	StateHydrating:       {StateUnauthenticated, StateResetRequired, StateActive},
	StateUnauthenticated: {StateResetRequired, StateActive},
	StateResetRequired:   {StateActive, StateUnauthenticated},
	// A login while active replaces the session (last write wins), so active
	// may re-enter reset_required when the new account is first-login.
	StateActive: {StateUnauthenticated, StateResetRequired},
}

// CanTransitionTo reports whether a transition from the current state to next is valid.
func (s SessionState) CanTransitionTo(next SessionState) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Authenticated reports whether the state carries an identity. A session in
// reset_required is authenticated; it is not yet cleared for interactive use.
func (s SessionState) Authenticated() bool {
	return s == StateResetRequired || s == StateActive
}
