// Package session holds the shell-wide sign-in state. The token is opaque:
// obtained from the account endpoints and passed verbatim to every call that
// needs it. It lives in this explicit state object, owned by the shell and
// handed to the components that read it, never in a package-level variable.
// Nothing is persisted; a reload returns to anonymous state.
package session

// State is the current session. Mutated only on the UI loop.
type State struct {
	token string
}

// New creates an anonymous session state.
func New() *State {
	return &State{}
}

// Token returns the opaque session token, empty when anonymous.
func (s *State) Token() string {
	return s.token
}

// SignedIn reports whether some user is signed in.
func (s *State) SignedIn() bool {
	return s.token != ""
}

// Set stores the token issued by a successful sign-in or sign-up.
func (s *State) Set(token string) {
	s.token = token
}

// Clear drops the token on sign-out.
func (s *State) Clear() {
	s.token = ""
}
