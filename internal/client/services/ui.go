package services

// Route names understood by a Navigator.
const (
	RouteLogin = "/login"
	RouteChat  = "/chat"
)

// Navigator switches the visible screen.
type Navigator interface {
	Navigate(route string)
}

// Alerter shows a blocking notice to the user.
type Alerter interface {
	Alert(msg string)
}

// Confirmer asks a yes/no question; false means declined.
type Confirmer interface {
	Confirm(prompt string) bool
}

type nopAlerter struct{}

func (nopAlerter) Alert(string) {}
