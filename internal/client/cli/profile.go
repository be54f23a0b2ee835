package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/nutrinow/internal/client/models"
	"github.com/dmitrijs2005/nutrinow/internal/client/services"
)

func (a *App) Profile(ctx context.Context) error {
	return a.protect(ctx, func(ctx context.Context) error {
		p, err := a.profile.Get(ctx)
		if err != nil {
			a.report(ctx, err, "Could not load your profile.")
			return err
		}
		fmt.Fprintf(a.out, "[%s] %s\n", p.Initials(), p.Name)
		fmt.Fprintf(a.out, "  Email:           %s\n", p.Email)
		fmt.Fprintf(a.out, "  Birth date:      %s\n", p.BirthDate)
		fmt.Fprintf(a.out, "  Goal:            %s\n", p.Goal)
		fmt.Fprintf(a.out, "  Height / weight: %s\n", p.HeightWeight)
		return nil
	})
}

func (a *App) ProfileEdit(ctx context.Context) error {
	return a.protect(ctx, func(ctx context.Context) error {
		cur, err := a.profile.Get(ctx)
		if err != nil {
			a.report(ctx, err, "Could not load your profile.")
			return err
		}
		height, weight := models.SplitHeightWeight(cur.HeightWeight)

		form := models.ProfileForm{}
		fields := []struct {
			prompt, current string
			dst             *string
		}{
			{"Name", cur.Name, &form.Name},
			{"Email", cur.Email, &form.Email},
			{"Birth date (dd/mm/yyyy)", unlessPlaceholder(cur.BirthDate), &form.BirthDate},
			{"Goal", cur.Goal, &form.Goal},
			{"Height (m)", unlessPlaceholder(height), &form.Height},
			{"Weight (kg)", unlessPlaceholder(weight), &form.Weight},
		}
		for _, f := range fields {
			if *f.dst, err = a.askDefault(f.prompt, f.current); err != nil {
				return err
			}
		}

		msg, err := a.profile.Update(ctx, form)
		if err != nil {
			a.report(ctx, err, "Could not update your profile.")
			return err
		}
		fmt.Fprintln(a.out, msg)
		return nil
	})
}

// unlessPlaceholder hides the backend's dashed placeholders such as
// "--/--/----" so they are not offered as defaults.
func unlessPlaceholder(s string) string {
	if strings.HasPrefix(s, "-") {
		return ""
	}
	return s
}

func (a *App) DeleteAccount(ctx context.Context) error {
	return a.protect(ctx, func(ctx context.Context) error {
		if err := a.profile.DeleteAccount(ctx); err != nil {
			if errors.Is(err, services.ErrCancelled) {
				fmt.Fprintln(a.out, "Cancelled.")
				return err
			}
			a.report(ctx, err, "Could not delete the account.")
			return err
		}
		fmt.Fprintln(a.out, "Account deleted.")
		a.Navigate(services.RouteLogin)
		return nil
	})
}
