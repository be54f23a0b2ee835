package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/nutrinow/internal/client/client"
	"github.com/dmitrijs2005/nutrinow/internal/client/config"
	"github.com/dmitrijs2005/nutrinow/internal/client/services"
	"github.com/dmitrijs2005/nutrinow/internal/client/storage"
	"github.com/dmitrijs2005/nutrinow/internal/filex"
	"github.com/dmitrijs2005/nutrinow/internal/logging"
)

type Mode string

const (
	ModeUnknown Mode = ""
	ModeOnline  Mode = "online"
	ModeOffline Mode = "offline"
)

const (
	statusCheckInterval = 30 * time.Second
	pingTimeout         = 3 * time.Second
)

// Streams are the terminal handles the App talks through.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// App wires the client services to a terminal. It is the Navigator, Alerter
// and Confirmer the services call back into.
type App struct {
	cfg *config.Config
	log logging.Logger

	store *storage.SQLiteStore
	api   *client.HTTPClient

	session  *services.SessionManager
	guard    *services.AuthGuard
	chat     *services.ChatCoordinator
	conv     *services.Conversation
	items    *services.ItemManager
	profile  *services.ProfileService
	password *services.PasswordService

	reader *bufio.Reader
	out    io.Writer
	errOut io.Writer
	ttyFd  int

	mu    sync.Mutex
	route string
	mode  Mode
}

// NewApp opens the local store, restores the previous session and builds
// every service. Close releases what NewApp opened.
func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger, s Streams) (*App, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if err := filex.EnsureParentDir(cfg.DBPath); err != nil {
		return nil, fmt.Errorf("prepare local database: %w", err)
	}
	store, err := storage.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}

	api, err := client.NewHTTPClient(ctx, client.Options{
		BaseURL:   cfg.ServerURL,
		Timeout:   cfg.RequestTimeout,
		RateLimit: cfg.RateLimit,
		Burst:     cfg.RateBurst,
		Store:     store,
		Logger:    log,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	a := &App{
		cfg:    cfg,
		log:    log.With("module", "cli"),
		store:  store,
		api:    api,
		reader: bufio.NewReader(s.In),
		out:    s.Out,
		errOut: s.Err,
		ttyFd:  -1,
	}
	if f, ok := s.In.(*os.File); ok && isTerminal(int(f.Fd())) {
		a.ttyFd = int(f.Fd())
	}

	a.session = services.NewSessionManager(ctx, api, store, log)
	a.guard = services.NewAuthGuard(a.session, a)
	a.chat = services.NewChatCoordinator(api, store, log)
	a.conv = services.NewConversation(a.chat, log)
	a.items = services.NewItemManager(api, a, a, log)
	a.profile = services.NewProfileService(api, a.session, a.chat, a, log)
	a.password = services.NewPasswordService(api)

	a.route = services.RouteLogin
	if a.session.IsAuthenticated() {
		a.route = services.RouteChat
	}
	return a, nil
}

func (a *App) Close() error {
	return errors.Join(a.api.Close(), a.store.Close())
}

// Run shows the REPL until the user quits or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fmt.Fprintln(a.out, "Welcome to NutriNow (type 'help' for commands)")
	if u := a.session.CurrentUser(); u != nil {
		fmt.Fprintf(a.out, "Logged in as %s.\n", u.Email)
	}

	go a.StartOnlineStatusWatcher(ctx, statusCheckInterval)

	runREPL(ctx, a, a.getStatus, a.reader, a.out)
}

func (a *App) isLoggedIn() bool {
	return a.session.IsAuthenticated()
}

func (a *App) getStatus() string {
	s := ""
	if u := a.session.CurrentUser(); u != nil {
		s = u.Email
	}
	a.mu.Lock()
	mode := a.mode
	a.mu.Unlock()
	if mode != ModeUnknown {
		if s != "" {
			s += " "
		}
		s += string(mode)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

func (a *App) setMode(ctx context.Context, mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()
	if changed {
		a.log.Info(ctx, "connectivity changed", "mode", mode)
	}
}

// checkOnline pings the backend once and records the outcome.
func (a *App) checkOnline(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := a.api.Ping(pctx); err != nil {
		a.setMode(ctx, ModeOffline)
		return
	}
	a.setMode(ctx, ModeOnline)
}

// StartOnlineStatusWatcher probes the backend every interval until ctx ends.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	a.checkOnline(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Route is the screen the user is on.
func (a *App) Route() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.route
}

func (a *App) Navigate(route string) {
	a.mu.Lock()
	a.route = route
	a.mu.Unlock()
}

// protect runs fn behind the route guard.
func (a *App) protect(ctx context.Context, fn func(ctx context.Context) error) error {
	err := a.guard.Protect(ctx, fn)
	if errors.Is(err, services.ErrUnauthenticated) {
		a.Alert("Please log in first: use 'login' or 'register'.")
	}
	return err
}

func (a *App) Alert(msg string) {
	if msg == "" {
		return
	}
	fmt.Fprintln(a.errOut, "! "+msg)
}

func (a *App) Confirm(prompt string) bool {
	return GetConfirmation(a.reader, prompt, a.out)
}

// report shows err to the user. An expired session is dropped locally and
// the user is sent back to the login screen.
func (a *App) report(ctx context.Context, err error, fallback string) {
	if err == nil {
		return
	}
	a.log.Debug(ctx, "command failed", "error", err)
	a.Alert(services.UserMessage(err, fallback))
	a.dropExpiredSession(ctx, err)
}

func (a *App) dropExpiredSession(ctx context.Context, err error) {
	if errors.Is(err, client.ErrUnauthorized) {
		a.session.Clear(ctx)
		a.Navigate(services.RouteLogin)
	}
}

func (a *App) ask(prompt string) (string, error) {
	return GetSimpleText(a.reader, prompt, a.out)
}

func (a *App) askDefault(prompt, current string) (string, error) {
	return GetTextWithDefault(a.reader, prompt, current, a.out)
}

// askPassword reads without echo on a terminal and as a plain line otherwise.
func (a *App) askPassword(prompt string) (string, error) {
	if a.ttyFd < 0 {
		return a.ask(prompt)
	}
	pw, err := GetPassword(a.out, prompt, a.ttyFd)
	if err != nil {
		return "", err
	}
	defer wipe(pw)
	return string(pw), nil
}
