package models

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Profile is the user's profile as shown on the profile screen.
type Profile struct {
	Name         string `json:"nome"`
	Email        string `json:"email"`
	BirthDate    string `json:"dataNascimento"`
	Goal         string `json:"meta"`
	HeightWeight string `json:"alturaPeso"`
}

// Initials returns the upper-cased first letters of the first and last name,
// the first letter alone for single names and "U" when the name is empty.
func (p Profile) Initials() string {
	parts := strings.Fields(p.Name)
	switch len(parts) {
	case 0:
		return "U"
	case 1:
		return upperFirst(parts[0])
	default:
		return upperFirst(parts[0]) + upperFirst(parts[len(parts)-1])
	}
}

func upperFirst(s string) string {
	r, _ := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r))
}

// ProfileUpdate is the POST /perfil body.
type ProfileUpdate struct {
	Name         string `json:"nome,omitempty"`
	Email        string `json:"email,omitempty"`
	BirthDate    string `json:"dataNascimento,omitempty"`
	Goal         string `json:"meta,omitempty"`
	HeightWeight string `json:"alturaPeso"`
}

// ProfileForm is what the user edits; height in metres, weight in kilograms.
type ProfileForm struct {
	Name      string
	Email     string
	BirthDate string
	Goal      string
	Height    string
	Weight    string
}

// FormatHeightWeight renders "1.80m / 75kg", or "" unless both are set.
func FormatHeightWeight(height, weight string) string {
	height, weight = strings.TrimSpace(height), strings.TrimSpace(weight)
	if height == "" || weight == "" {
		return ""
	}
	return fmt.Sprintf("%sm / %skg", height, weight)
}

// SplitHeightWeight is the inverse of FormatHeightWeight. Placeholders such
// as "-- / --" yield dashes, which callers may show as-is.
func SplitHeightWeight(s string) (height, weight string) {
	h, w, ok := strings.Cut(s, " / ")
	if !ok {
		return "", ""
	}
	height = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(h), "m"))
	weight = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(w), "kg"))
	return height, weight
}

// PasswordReset is the POST /redefinir-senha body.
type PasswordReset struct {
	Token       string `json:"token"`
	NewPassword string `json:"nova_senha"`
}

// PasswordForgot is the POST /esqueci-senha body.
type PasswordForgot struct {
	Email string `json:"email"`
}
