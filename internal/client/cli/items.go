package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/nutrinow/internal/client/models"
	"github.com/dmitrijs2005/nutrinow/internal/client/services"
)

// reportUnalerted covers the failures ItemManager does not alert on itself.
func (a *App) reportUnalerted(ctx context.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInFlight),
		errors.Is(err, services.ErrCancelled),
		errors.Is(err, services.ErrNoSelection),
		errors.Is(err, services.ErrItemNotFound):
		a.Alert(services.UserMessage(err, ""))
	default:
		a.dropExpiredSession(ctx, err)
	}
}

func (a *App) printItems() {
	tab := a.items.ActiveTab()
	items := a.items.Items()
	fmt.Fprintf(a.out, "== %s (%d)\n", tab, len(items))
	if len(items) == 0 {
		fmt.Fprintln(a.out, "Nothing here yet. Use 'add' to create an entry.")
		return
	}
	for _, it := range items {
		when := ""
		if it.Time != "" {
			when = " @ " + it.Time
		}
		fmt.Fprintf(a.out, "#%d %s%s\n    %s\n", it.ID, it.Title, when, it.Description)
	}
}

func (a *App) Items(ctx context.Context) error {
	return a.protect(ctx, func(ctx context.Context) error {
		if err := a.items.LoadItems(ctx); err != nil {
			a.report(ctx, err, "Could not load your lists.")
			return err
		}
		a.printItems()
		return nil
	})
}

func (a *App) Tab(ctx context.Context, name string) error {
	return a.protect(ctx, func(ctx context.Context) error {
		tab, err := models.ParseTab(name)
		if err != nil {
			a.Alert("Unknown tab. Use 'treinos' or 'dietas'.")
			return err
		}
		a.items.SwitchTab(tab)
		a.printItems()
		return nil
	})
}

func (a *App) Add(ctx context.Context) error {
	return a.protect(ctx, func(ctx context.Context) error {
		title, err := a.ask("Title")
		if err != nil {
			return err
		}
		desc, err := a.ask("Description")
		if err != nil {
			return err
		}
		tm, err := a.ask("Time (optional, e.g. 07:30)")
		if err != nil {
			return err
		}

		item, err := a.items.AddItem(ctx, title, desc, tm)
		if err != nil {
			a.reportUnalerted(ctx, err)
			return err
		}
		if item != nil {
			fmt.Fprintf(a.out, "Added #%d to %s.\n", item.ID, a.items.ActiveTab())
		} else {
			fmt.Fprintf(a.out, "Added to %s.\n", a.items.ActiveTab())
		}
		return nil
	})
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid item id %q", s)
	}
	return id, nil
}

func (a *App) Edit(ctx context.Context, idStr string) error {
	return a.protect(ctx, func(ctx context.Context) error {
		id, err := parseID(idStr)
		if err != nil {
			a.Alert(err.Error())
			return err
		}
		cur, err := a.items.EditItemByID(id)
		if err != nil {
			a.reportUnalerted(ctx, err)
			return err
		}

		title, err := a.askDefault("Title", cur.Title)
		if err != nil {
			a.items.CancelEdit()
			return err
		}
		desc, err := a.askDefault("Description", cur.Description)
		if err != nil {
			a.items.CancelEdit()
			return err
		}
		tm, err := a.askDefault("Time", cur.Time)
		if err != nil {
			a.items.CancelEdit()
			return err
		}

		if err := a.items.UpdateItem(ctx, title, desc, tm); err != nil {
			a.reportUnalerted(ctx, err)
			return err
		}
		fmt.Fprintf(a.out, "Updated #%d.\n", id)
		return nil
	})
}

func (a *App) Delete(ctx context.Context, idStr string) error {
	return a.protect(ctx, func(ctx context.Context) error {
		id, err := parseID(idStr)
		if err != nil {
			a.Alert(err.Error())
			return err
		}
		if err := a.items.DeleteItem(ctx, id); err != nil {
			a.reportUnalerted(ctx, err)
			return err
		}
		fmt.Fprintf(a.out, "Deleted #%d.\n", id)
		return nil
	})
}
