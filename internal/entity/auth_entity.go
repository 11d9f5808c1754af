package entity

type AuthStatus string

const (
	AuthStatusLoggedOut           AuthStatus = "logged_out"
	AuthStatusPendingVerification AuthStatus = "pending_verification"
	AuthStatusLoggedIn            AuthStatus = "logged_in"
)

type AuthState struct {
	Status      AuthStatus
	DisplayName string
	Email       string
	Provider    string // "local" or "google"
}

func (a AuthState) LoggedIn() bool {
	return a.Status == AuthStatusLoggedIn
}
