package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/nutrinow/internal/client/models"
	"github.com/dmitrijs2005/nutrinow/internal/client/services"
)

func (a *App) Register(ctx context.Context) error {
	var (
		reg models.Registration
		err error
	)
	fields := []struct {
		prompt string
		dst    *string
	}{
		{"First name", &reg.FirstName},
		{"Last name", &reg.LastName},
		{"Birth date (dd/mm/yyyy, optional)", &reg.BirthDate},
		{"Gender (optional)", &reg.Gender},
		{"Email", &reg.Email},
	}
	for _, f := range fields {
		if *f.dst, err = a.ask(f.prompt); err != nil {
			return err
		}
	}
	if reg.Password, err = a.askPassword("Password"); err != nil {
		return err
	}
	if reg.Confirm, err = a.askPassword("Confirm password"); err != nil {
		return err
	}

	resp, err := a.session.Register(ctx, reg)
	if err != nil {
		a.report(ctx, err, "Could not create the account.")
		return err
	}
	msg := resp.Message
	if msg == "" {
		msg = "Account created."
	}
	fmt.Fprintln(a.out, msg+" You can log in now.")
	return nil
}

func (a *App) Login(ctx context.Context) error {
	email, err := a.ask("Email")
	if err != nil {
		return err
	}
	password, err := a.askPassword("Password")
	if err != nil {
		return err
	}

	if _, err := a.session.Login(ctx, email, password); err != nil {
		// A 401 here means bad credentials, not an expired session.
		a.Alert(services.UserMessage(err, "Login failed."))
		return err
	}
	u := a.session.CurrentUser()
	fmt.Fprintf(a.out, "Welcome, %s!\n", displayName(u))
	a.Navigate(services.RouteChat)

	if err := a.conv.Load(ctx); err != nil {
		a.log.Warn(ctx, "could not load chat history", "error", err)
	}
	return nil
}

func displayName(u *models.User) string {
	if u == nil {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// Logout ends the session and forgets the chat session id. Local state is
// cleared even if the backend could not be told.
func (a *App) Logout(ctx context.Context) error {
	err := a.session.Logout(ctx)
	if cerr := a.chat.ClearSession(ctx); cerr != nil {
		a.log.Warn(ctx, "failed to clear chat session", "error", cerr)
	}
	a.Navigate(services.RouteLogin)
	if err != nil {
		a.Alert("Logged out locally, but the server could not be reached.")
		return err
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	u := a.session.CurrentUser()
	if u == nil {
		fmt.Fprintln(a.out, "Not logged in.")
		return nil
	}
	fmt.Fprintf(a.out, "%s <%s> (id %d)\n", displayName(u), u.Email, u.ID)
	return nil
}

func (a *App) Forgot(ctx context.Context) error {
	email, err := a.ask("Email")
	if err != nil {
		return err
	}
	msg, err := a.password.Forgot(ctx, email)
	if err != nil {
		a.report(ctx, err, "Could not request a password reset.")
		return err
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

func (a *App) Reset(ctx context.Context) error {
	token, err := a.ask("Reset token")
	if err != nil {
		return err
	}
	pw, err := a.askPassword("New password")
	if err != nil {
		return err
	}
	confirm, err := a.askPassword("Confirm new password")
	if err != nil {
		return err
	}

	msg, err := a.password.Reset(ctx, token, pw, confirm)
	if err != nil {
		a.report(ctx, err, "Could not reset the password.")
		return err
	}
	fmt.Fprintln(a.out, msg)
	return nil
}
