// Package common contains constants shared by the NutriNow client and the
// development backend.
package common

const (
	// SessionIDHeaderName carries the chat session id on chat and image requests.
	SessionIDHeaderName = "X-Session-ID"

	// RequestIDHeaderName carries a per-request correlation id.
	RequestIDHeaderName = "X-Request-ID"

	// SessionCookieName is the backend-issued authentication cookie.
	SessionCookieName = "session"
)

// Item kinds as understood by the /dieta-treino endpoints.
const (
	KindWorkout = "treino"
	KindMeal    = "dieta"
)

// History turn discriminator for messages written by the user.
const HistoryTypeHuman = "human"
