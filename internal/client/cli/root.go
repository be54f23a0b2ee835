package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/nutrinow/internal/buildinfo"
	"github.com/dmitrijs2005/nutrinow/internal/client/config"
	"github.com/dmitrijs2005/nutrinow/internal/client/models"
	"github.com/dmitrijs2005/nutrinow/internal/logging"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the nutrinow command tree. Without a subcommand it runs
// the interactive REPL.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "nutrinow",
		Short:         "nutrinow is a terminal client for the NutriNow nutrition assistant",
		Long:          "nutrinow chats with the NutriNow assistant and keeps your workout and meal plans from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *App, _ []string) error {
			a.Run(ctx)
			return nil
		}),
	}
	config.BindFlags(root.PersistentFlags())

	root.AddCommand(
		&cobra.Command{
			Use:   "login",
			Short: "Log in and remember the session",
			Args:  cobra.NoArgs,
			RunE: withApp(func(ctx context.Context, a *App, _ []string) error {
				return a.Login(ctx)
			}),
		},
		&cobra.Command{
			Use:   "logout",
			Short: "End the session and forget the conversation id",
			Args:  cobra.NoArgs,
			RunE: withApp(func(ctx context.Context, a *App, _ []string) error {
				return a.Logout(ctx)
			}),
		},
		&cobra.Command{
			Use:   "whoami",
			Short: "Show the logged-in user",
			Args:  cobra.NoArgs,
			RunE: withApp(func(ctx context.Context, a *App, _ []string) error {
				return a.WhoAmI(ctx)
			}),
		},
		&cobra.Command{
			Use:   "chat <text>",
			Short: "Send one message to the assistant",
			Args:  cobra.MinimumNArgs(1),
			RunE: withApp(func(ctx context.Context, a *App, args []string) error {
				return a.Chat(ctx, strings.Join(args, " "))
			}),
		},
		&cobra.Command{
			Use:       "items [treinos|dietas]",
			Short:     "List workouts or meals",
			Args:      cobra.MaximumNArgs(1),
			ValidArgs: []string{string(models.TabWorkouts), string(models.TabMeals)},
			RunE: withApp(func(ctx context.Context, a *App, args []string) error {
				if len(args) == 1 {
					tab, err := models.ParseTab(args[0])
					if err != nil {
						return err
					}
					a.items.SwitchTab(tab)
				}
				return a.Items(ctx)
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Show version/build metadata",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				buildinfo.PrintBuildData(cmd.OutOrStdout())
			},
		},
	)
	return root
}

// withApp loads the configuration, opens an App on the command's streams and
// closes it after fn.
func withApp(fn func(ctx context.Context, a *App, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cmd.Flags())
		if err != nil {
			return err
		}
		log := logging.NewTextLogger(cmd.ErrOrStderr(), cfg.LogLevel)

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		a, err := NewApp(ctx, cfg, log, Streams{
			In:  cmd.InOrStdin(),
			Out: cmd.OutOrStdout(),
			Err: cmd.ErrOrStderr(),
		})
		if err != nil {
			return err
		}
		defer func() {
			if cerr := a.Close(); cerr != nil {
				log.Warn(ctx, "close app", "error", cerr)
			}
		}()
		return fn(ctx, a, args)
	}
}

// Execute runs the command tree with os.Args and returns the exit code.
func Execute(ctx context.Context, stderr io.Writer) int {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	return 0
}
