package services

import (
	"context"

	"github.com/dmitrijs2005/nutrinow/internal/client/models"
)

// UserStream is the part of SessionManager the guard depends on.
type UserStream interface {
	Subscribe() (<-chan *models.User, func())
}

// AuthGuard admits a protected screen only for an authenticated user and
// redirects everyone else to the login screen.
type AuthGuard struct {
	users UserStream
	nav   Navigator
}

func NewAuthGuard(users UserStream, nav Navigator) *AuthGuard {
	return &AuthGuard{users: users, nav: nav}
}

// CanActivate decides on the first value of the user stream.
func (g *AuthGuard) CanActivate(ctx context.Context) (bool, error) {
	ch, cancel := g.users.Subscribe()
	defer cancel()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case u := <-ch:
		if u.Complete() {
			return true, nil
		}
		g.nav.Navigate(RouteLogin)
		return false, nil
	}
}

// Protect runs fn only when CanActivate admits the caller.
func (g *AuthGuard) Protect(ctx context.Context, fn func(ctx context.Context) error) error {
	ok, err := g.CanActivate(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthenticated
	}
	return fn(ctx)
}
