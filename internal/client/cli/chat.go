package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dmitrijs2005/nutrinow/internal/client/models"
	"github.com/dmitrijs2005/nutrinow/internal/filex"
)

const maxImageBytes = 8 << 20

func (a *App) Chat(ctx context.Context, text string) error {
	return a.protect(ctx, func(ctx context.Context) error {
		reply, err := a.conv.Send(ctx, text)
		a.showReply(ctx, reply, err, "Could not send the message.")
		return err
	})
}

func (a *App) Image(ctx context.Context, path string) error {
	return a.protect(ctx, func(ctx context.Context) error {
		data, err := filex.ReadFileLimit(path, maxImageBytes)
		if err != nil {
			a.Alert(fmt.Sprintf("Could not read %s: %v", path, err))
			return err
		}
		reply, err := a.conv.SendImage(ctx, models.Upload{Filename: filepath.Base(path), Data: data})
		a.showReply(ctx, reply, err, "Could not send the image.")
		return err
	})
}

func (a *App) History(ctx context.Context) error {
	return a.protect(ctx, func(ctx context.Context) error {
		if err := a.conv.Load(ctx); err != nil {
			a.report(ctx, err, "Could not load the conversation.")
			return err
		}
		msgs := a.conv.Messages()
		if len(msgs) == 0 {
			fmt.Fprintln(a.out, "No messages yet. Say hello with 'chat <text>'.")
			return nil
		}
		for _, m := range msgs {
			who := "nutri"
			if m.IsUser {
				who = "you"
			}
			fmt.Fprintf(a.out, "[%s] %s: %s\n", m.Timestamp.Local().Format("15:04"), who, m.Text)
		}
		return nil
	})
}

// showReply prints the assistant line. A failed exchange already carries its
// error text as the reply; only failures without one are alerted.
func (a *App) showReply(ctx context.Context, reply models.ChatMessage, err error, fallback string) {
	if reply.Text == "" {
		a.report(ctx, err, fallback)
		return
	}
	fmt.Fprintln(a.out, "nutri: "+reply.Text)
	a.dropExpiredSession(ctx, err)
}
