// Package models defines the client-side data types exchanged with the
// NutriNow backend and held by the client services.
package models

import "encoding/json"

// User identifies the authenticated principal.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"nome"`
	Email string `json:"email"`
}

// UnmarshalJSON accepts both the "nome" and the older "name" spelling.
func (u *User) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID    int64  `json:"id"`
		Nome  string `json:"nome"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	u.ID = raw.ID
	u.Name = raw.Nome
	if u.Name == "" {
		u.Name = raw.Name
	}
	u.Email = raw.Email
	return nil
}

// Complete reports whether u carries an identity. A user is either fully
// populated or treated as absent.
func (u *User) Complete() bool {
	return u != nil && u.ID > 0 && u.Email != ""
}

// Clone returns a copy of u, or nil.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// Credentials is the login payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the sign-up payload. Confirm is checked locally and never
// sent.
type Registration struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	BirthDate string `json:"birth_date"`
	Gender    string `json:"gender"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Confirm   string `json:"-"`
}

// AuthResponse is returned by /register and /login.
type AuthResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	User    *User  `json:"user,omitempty"`
}

// MessageResponse is the generic {success, message, error} body.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
