package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/nutrinow/internal/client/client"
	"github.com/dmitrijs2005/nutrinow/internal/client/config"
	"github.com/dmitrijs2005/nutrinow/internal/client/services"
	"github.com/dmitrijs2005/nutrinow/internal/client/storage"
	"github.com/dmitrijs2005/nutrinow/internal/devserver"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newBackend(t *testing.T) string {
	t.Helper()
	srv := devserver.NewServer(&devserver.Config{
		Secret:     "cli-test-secret",
		SessionTTL: time.Hour,
		BcryptCost: bcrypt.MinCost,
	}, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts.URL
}

type harness struct {
	app    *App
	in     *bytes.Buffer
	out    *bytes.Buffer
	errOut *bytes.Buffer
}

func openApp(t *testing.T, url, dbPath string) *harness {
	t.Helper()
	h := &harness{in: &bytes.Buffer{}, out: &bytes.Buffer{}, errOut: &bytes.Buffer{}}
	cfg := &config.Config{ServerURL: url, DBPath: dbPath, RequestTimeout: 5 * time.Second}

	a, err := NewApp(context.Background(), cfg, nil, Streams{In: h.in, Out: h.out, Err: h.errOut})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	h.app = a
	return h
}

// input queues the answers for the next command's prompts.
func (h *harness) input(lines ...string) {
	h.in.WriteString(strings.Join(lines, "\n") + "\n")
}

func signUpAndIn(t *testing.T, h *harness) {
	t.Helper()
	ctx := context.Background()

	h.input("Ana", "Lima", "", "", "ana@nutri.io", "segredo", "segredo")
	require.NoError(t, h.app.Register(ctx))

	h.input("ana@nutri.io", "segredo")
	require.NoError(t, h.app.Login(ctx))
}

func TestApp_RegisterLoginWhoAmI(t *testing.T) {
	ctx := context.Background()
	h := openApp(t, newBackend(t), filepath.Join(t.TempDir(), "state.db"))

	require.NoError(t, h.app.WhoAmI(ctx))
	assert.Contains(t, h.out.String(), "Not logged in.")
	assert.Equal(t, services.RouteLogin, h.app.Route())

	signUpAndIn(t, h)

	assert.Contains(t, h.out.String(), "Conta criada com sucesso!")
	assert.Contains(t, h.out.String(), "Welcome, Ana Lima!")
	assert.Equal(t, services.RouteChat, h.app.Route())
	assert.True(t, h.app.isLoggedIn())

	require.NoError(t, h.app.WhoAmI(ctx))
	assert.Contains(t, h.out.String(), "Ana Lima <ana@nutri.io> (id 1)")
	assert.Contains(t, h.app.getStatus(), "ana@nutri.io")
}

func TestApp_LoginWithWrongPasswordOnlyAlerts(t *testing.T) {
	ctx := context.Background()
	h := openApp(t, newBackend(t), filepath.Join(t.TempDir(), "state.db"))

	h.input("Ana", "Lima", "", "", "ana@nutri.io", "segredo", "segredo")
	require.NoError(t, h.app.Register(ctx))

	h.input("ana@nutri.io", "errado")
	require.Error(t, h.app.Login(ctx))

	assert.Contains(t, h.errOut.String(), "! Email ou senha inválidos")
	assert.False(t, h.app.isLoggedIn())
	assert.Equal(t, services.RouteLogin, h.app.Route())
}

func TestApp_RegisterMismatchedPasswords(t *testing.T) {
	h := openApp(t, newBackend(t), filepath.Join(t.TempDir(), "state.db"))

	h.input("Ana", "Lima", "", "", "ana@nutri.io", "um", "dois")
	require.Error(t, h.app.Register(context.Background()))
	assert.Contains(t, h.errOut.String(), "Passwords do not match.")
}

func TestApp_ProtectedCommandsNeedLogin(t *testing.T) {
	ctx := context.Background()
	h := openApp(t, newBackend(t), filepath.Join(t.TempDir(), "state.db"))

	for name, run := range map[string]func() error{
		"items":   func() error { return h.app.Items(ctx) },
		"chat":    func() error { return h.app.Chat(ctx, "oi") },
		"profile": func() error { return h.app.Profile(ctx) },
	} {
		require.ErrorIs(t, run(), services.ErrUnauthenticated, name)
	}
	assert.Contains(t, h.errOut.String(), "Please log in first")
	assert.Equal(t, services.RouteLogin, h.app.Route())
}

func TestApp_ItemsLifecycle(t *testing.T) {
	ctx := context.Background()
	h := openApp(t, newBackend(t), filepath.Join(t.TempDir(), "state.db"))
	signUpAndIn(t, h)

	require.NoError(t, h.app.Items(ctx))
	assert.Contains(t, h.out.String(), "== treinos (0)")

	h.input("Corrida", "5k leve", "07:00")
	require.NoError(t, h.app.Add(ctx))
	assert.Contains(t, h.out.String(), "Added #1 to treinos.")

	h.out.Reset()
	require.NoError(t, h.app.Items(ctx))
	assert.Contains(t, h.out.String(), "#1 Corrida @ 07:00\n    5k leve")

	h.input("", "10k", "")
	require.NoError(t, h.app.Edit(ctx, "1"))
	assert.Contains(t, h.out.String(), "Updated #1.")

	h.out.Reset()
	require.NoError(t, h.app.Items(ctx))
	assert.Contains(t, h.out.String(), "#1 Corrida @ 07:00\n    10k")

	require.Error(t, h.app.Edit(ctx, "x"))
	assert.Contains(t, h.errOut.String(), `invalid item id "x"`)
	require.ErrorIs(t, h.app.Edit(ctx, "99"), services.ErrItemNotFound)
	assert.Contains(t, h.errOut.String(), "No such item in the current tab.")

	h.input("n")
	require.ErrorIs(t, h.app.Delete(ctx, "1"), services.ErrCancelled)
	assert.Contains(t, h.errOut.String(), "! Cancelled.")

	h.input("y")
	require.NoError(t, h.app.Delete(ctx, "1"))
	assert.Contains(t, h.out.String(), "Deleted #1.")

	h.out.Reset()
	require.NoError(t, h.app.Items(ctx))
	assert.Contains(t, h.out.String(), "== treinos (0)")
}

func TestApp_TabsKeepKindsApart(t *testing.T) {
	ctx := context.Background()
	h := openApp(t, newBackend(t), filepath.Join(t.TempDir(), "state.db"))
	signUpAndIn(t, h)

	require.NoError(t, h.app.Tab(ctx, "dietas"))
	h.input("Café", "Ovos e pão", "")
	require.NoError(t, h.app.Add(ctx))
	assert.Contains(t, h.out.String(), "Added #1 to dietas.")

	h.out.Reset()
	require.NoError(t, h.app.Tab(ctx, "treinos"))
	assert.Contains(t, h.out.String(), "== treinos (0)")

	require.NoError(t, h.app.Items(ctx))
	require.NoError(t, h.app.Tab(ctx, "dietas"))
	assert.Contains(t, h.out.String(), "#1 Café\n    Ovos e pão")

	require.Error(t, h.app.Tab(ctx, "lanches"))
	assert.Contains(t, h.errOut.String(), "Unknown tab.")
}

func TestApp_ChatHistoryAndImage(t *testing.T) {
	ctx := context.Background()
	h := openApp(t, newBackend(t), filepath.Join(t.TempDir(), "state.db"))
	signUpAndIn(t, h)

	require.NoError(t, h.app.Chat(ctx, "dica de treino"))
	assert.Contains(t, h.out.String(), "nutri: ")

	id, ok, err := h.app.store.Get(ctx, services.SessionIDKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(id, "session_"), id)

	img := filepath.Join(t.TempDir(), "prato.jpg")
	require.NoError(t, os.WriteFile(img, []byte{0xff, 0xd8, 0xff, 0xe0}, 0o600))
	require.NoError(t, h.app.Image(ctx, img))
	assert.Contains(t, h.out.String(), "nutri: Image prato.jpg (4 bytes)")

	require.Error(t, h.app.Image(ctx, filepath.Join(t.TempDir(), "missing.jpg")))
	assert.Contains(t, h.errOut.String(), "Could not read")

	h.out.Reset()
	require.NoError(t, h.app.History(ctx))
	out := h.out.String()
	assert.Contains(t, out, "you: dica de treino")
	assert.Contains(t, out, "you: [image] prato.jpg")
	assert.Contains(t, out, "nutri: Image prato.jpg")
}

func TestApp_LogoutForgetsChatSession(t *testing.T) {
	ctx := context.Background()
	h := openApp(t, newBackend(t), filepath.Join(t.TempDir(), "state.db"))
	signUpAndIn(t, h)
	require.NoError(t, h.app.Chat(ctx, "oi"))

	require.NoError(t, h.app.Logout(ctx))

	assert.Contains(t, h.out.String(), "Logged out.")
	assert.False(t, h.app.isLoggedIn())
	assert.Equal(t, services.RouteLogin, h.app.Route())
	_, ok, err := h.app.store.Get(ctx, services.SessionIDKey)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = h.app.store.Get(ctx, services.CurrentUserKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestApp_SessionSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	url := newBackend(t)
	db := filepath.Join(t.TempDir(), "state.db")

	first := openApp(t, url, db)
	signUpAndIn(t, first)
	first.input("Corrida", "5k", "")
	require.NoError(t, first.app.Add(ctx))
	require.NoError(t, first.app.Close())

	second := openApp(t, url, db)
	assert.True(t, second.app.isLoggedIn())
	assert.Equal(t, services.RouteChat, second.app.Route())

	require.NoError(t, second.app.Items(ctx))
	assert.Contains(t, second.out.String(), "#1 Corrida")
}

func TestApp_RejectedSessionIsDropped(t *testing.T) {
	ctx := context.Background()
	url := newBackend(t)
	db := filepath.Join(t.TempDir(), "state.db")

	first := openApp(t, url, db)
	signUpAndIn(t, first)
	require.NoError(t, first.app.Close())

	store, err := storage.Open(ctx, db)
	require.NoError(t, err)
	require.NoError(t, store.Remove(ctx, client.CookiesKey))
	require.NoError(t, store.Close())

	second := openApp(t, url, db)
	require.True(t, second.app.isLoggedIn())

	require.Error(t, second.app.Items(ctx))
	assert.Contains(t, second.errOut.String(), "! ")
	assert.False(t, second.app.isLoggedIn())
	assert.Equal(t, services.RouteLogin, second.app.Route())
}

func TestApp_ProfileEditAndDeleteAccount(t *testing.T) {
	ctx := context.Background()
	h := openApp(t, newBackend(t), filepath.Join(t.TempDir(), "state.db"))
	signUpAndIn(t, h)

	require.NoError(t, h.app.Profile(ctx))
	assert.Contains(t, h.out.String(), "[AL] Ana Lima")
	assert.Contains(t, h.out.String(), "--/--/----")

	h.input("", "", "31/12/1990", "Ganhar massa", "1.70", "60")
	require.NoError(t, h.app.ProfileEdit(ctx))
	assert.Contains(t, h.out.String(), "Perfil atualizado com sucesso!")

	h.out.Reset()
	require.NoError(t, h.app.Profile(ctx))
	out := h.out.String()
	assert.Contains(t, out, "31/12/1990")
	assert.Contains(t, out, "Ganhar massa")
	assert.Contains(t, out, "1.70m / 60kg")

	h.input("n")
	require.ErrorIs(t, h.app.DeleteAccount(ctx), services.ErrCancelled)
	assert.True(t, h.app.isLoggedIn())

	h.input("y")
	require.NoError(t, h.app.DeleteAccount(ctx))
	assert.Contains(t, h.out.String(), "Account deleted.")
	assert.False(t, h.app.isLoggedIn())
	assert.Equal(t, services.RouteLogin, h.app.Route())

	h.input("ana@nutri.io", "segredo")
	require.Error(t, h.app.Login(ctx))
}

func TestApp_ForgotPassword(t *testing.T) {
	ctx := context.Background()
	h := openApp(t, newBackend(t), filepath.Join(t.TempDir(), "state.db"))

	h.input("ghost@nutri.io")
	require.Error(t, h.app.Forgot(ctx))
	assert.Contains(t, h.errOut.String(), "Email não cadastrado.")

	h.input("Ana", "Lima", "", "", "ana@nutri.io", "segredo", "segredo")
	require.NoError(t, h.app.Register(ctx))
	h.input("ana@nutri.io")
	require.NoError(t, h.app.Forgot(ctx))
	assert.Contains(t, h.out.String(), "As instruções foram enviadas")

	h.input("bogus", "nova", "nova")
	require.Error(t, h.app.Reset(ctx))
	assert.Contains(t, h.errOut.String(), "Token inválido ou expirado.")
}

func TestApp_ConnectivityStatus(t *testing.T) {
	ctx := context.Background()

	online := openApp(t, newBackend(t), filepath.Join(t.TempDir(), "state.db"))
	online.app.checkOnline(ctx)
	assert.Equal(t, "(online)", online.app.getStatus())

	dead := httptest.NewServer(nil)
	url := dead.URL
	dead.Close()

	offline := openApp(t, url, filepath.Join(t.TempDir(), "state.db"))
	offline.app.checkOnline(ctx)
	assert.Equal(t, "(offline)", offline.app.getStatus())

	watchCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		online.app.StartOnlineStatusWatcher(watchCtx, time.Hour)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
