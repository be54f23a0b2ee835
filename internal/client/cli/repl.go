package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// execIface is the command surface the REPL drives. App satisfies it; tests
// provide a recording stub.
type execIface interface {
	isLoggedIn() bool

	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Forgot(ctx context.Context) error
	Reset(ctx context.Context) error

	Chat(ctx context.Context, text string) error
	History(ctx context.Context) error
	Image(ctx context.Context, path string) error

	Items(ctx context.Context) error
	Tab(ctx context.Context, name string) error
	Add(ctx context.Context) error
	Edit(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error

	Profile(ctx context.Context) error
	ProfileEdit(ctx context.Context) error
	DeleteAccount(ctx context.Context) error
}

const (
	helpAnonymous = "Available commands: register, login, forgot, reset, whoami, exit"
	helpLoggedIn  = "Available commands: chat <text>, history, image <path>, items, tab treinos|dietas, " +
		"add, edit <id>, delete <id>, profile, profile-edit, delete-account, whoami, logout, exit"
)

// runREPL reads one command per line from reader and dispatches it to a.
//
// The first word is the command; the rest of the line is its argument, so
// "chat what should I eat?" sends the whole question. The loop ends on EOF,
// on "exit" or "quit", or when ctx is cancelled.
//
// Errors returned by command handlers are ignored here; handlers report
// their own failures to the user.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	for {
		if ctx.Err() != nil {
			return
		}
		fmt.Fprintf(w, "nutrinow %s> ", statusFn())

		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(w)
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(w, helpLoggedIn)
			} else {
				fmt.Fprintln(w, helpAnonymous)
			}

		case "register":
			_ = a.Register(ctx)
		case "login":
			_ = a.Login(ctx)
		case "logout":
			_ = a.Logout(ctx)
		case "whoami":
			_ = a.WhoAmI(ctx)
		case "forgot":
			_ = a.Forgot(ctx)
		case "reset":
			_ = a.Reset(ctx)

		case "chat":
			if arg == "" {
				fmt.Fprintln(w, "Usage: chat <text>")
				continue
			}
			_ = a.Chat(ctx, arg)
		case "history":
			_ = a.History(ctx)
		case "image":
			if arg == "" {
				fmt.Fprintln(w, "Usage: image <path>")
				continue
			}
			_ = a.Image(ctx, arg)

		case "items", "l", "list":
			_ = a.Items(ctx)
		case "tab":
			if arg == "" {
				fmt.Fprintln(w, "Usage: tab treinos|dietas")
				continue
			}
			_ = a.Tab(ctx, arg)
		case "add":
			_ = a.Add(ctx)
		case "edit":
			if arg == "" {
				fmt.Fprintln(w, "Usage: edit <id>")
				continue
			}
			_ = a.Edit(ctx, arg)
		case "delete":
			if arg == "" {
				fmt.Fprintln(w, "Usage: delete <id>")
				continue
			}
			_ = a.Delete(ctx, arg)

		case "profile":
			_ = a.Profile(ctx)
		case "profile-edit":
			_ = a.ProfileEdit(ctx)
		case "delete-account":
			_ = a.DeleteAccount(ctx)

		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return

		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}
	}
}
