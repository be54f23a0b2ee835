package devserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/nutrinow/internal/logging"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 5 * time.Second

// Server is the development backend.
type Server struct {
	cfg    *Config
	log    logging.Logger
	state  *state
	router *gin.Engine
}

func NewServer(cfg *Config, log logging.Logger) *Server {
	if log == nil {
		log = logging.NewNopLogger()
	}
	s := &Server{
		cfg:   cfg,
		log:   log.With("module", "devserver"),
		state: newState(cfg.BcryptCost),
	}
	s.router = s.newRouter()
	return s
}

func (s *Server) newRouter() *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(s.recovery())
	r.Use(requestID())
	r.Use(s.accessLog())

	r.NoRoute(func(c *gin.Context) {
		fail(c, http.StatusNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		fail(c, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", s.health)
	r.POST("/register", s.register)
	r.POST("/cadastro", s.register)
	r.POST("/login", s.login)
	r.POST("/logout", s.logout)
	r.POST("/esqueci-senha", s.forgotPassword)
	r.POST("/redefinir-senha", s.resetPassword)

	authGroup := r.Group("/")
	authGroup.Use(s.authRequired())
	authGroup.POST("/chat", s.chat)
	authGroup.GET("/chat_history", s.chatHistory)
	authGroup.POST("/analyze_image", s.analyzeImage)

	authGroup.GET("/dieta-treino", s.listItems)
	authGroup.POST("/dieta-treino", s.createItem)
	authGroup.PUT("/dieta-treino/:id", s.updateItem)
	authGroup.DELETE("/dieta-treino/:id", s.deleteItem)

	authGroup.GET("/perfil", s.getProfile)
	authGroup.POST("/perfil", s.updateProfile)
	authGroup.DELETE("/perfil", s.deleteProfile)
	return r
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on cfg.Addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.log.Info(ctx, "Starting HTTP server", "address", ln.Addr().String())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info(ctx, "Stopping HTTP server...")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
