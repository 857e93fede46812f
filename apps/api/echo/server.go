package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"

	"github.com/trezcool/rekodi/core"
	"github.com/trezcool/rekodi/core/appdata"
	"github.com/trezcool/rekodi/core/school"
)

type (
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		SchoolSvc  *school.Service
		AppDataSvc *appdata.Service
		Validate   *validator.Validate
		Translator ut.Translator
	}

	Server interface {
		http.Handler
		Start()
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
		Shutdown(context.Context) error
		Close() error
	}

	server struct {
		deps     ServerDeps
		app      *echo.Echo
		errs     chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

// NewServer wires the HTTP API. It fails when the token signing secret is
// missing: every protected route depends on it and a blank secret would
// accept forged tokens.
func NewServer(deps ServerDeps) (Server, error) {
	if len(deps.Conf.SecretKey) == 0 {
		return nil, errors.New("secret key is not configured")
	}

	s := &server{
		deps:     deps,
		app:      echo.New(),
		errs:     make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, syscall.SIGINT, syscall.SIGTERM)
	s.setup()
	return s, nil
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)
	s.app.GET("/api", s.apiInfo)
	s.app.GET("/health", s.health)

	jwt := middleware.JWTWithConfig(newJWTConfig(conf))

	s.app.GET("/auth/test", s.authTest, jwt)

	registerStudentAPI(s.app, jwt, s.deps)
	registerAppDataAPI(s.app, jwt, s.deps)
}

func (s *server) Start() {
	s.errs <- s.app.Start(s.deps.Conf.Server.Addr)
}

func (s *server) Errors() <-chan error {
	return s.errs
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// signalShutdown is called by the error handler when an integrity fault is
// caught; it triggers the same graceful stop as an OS signal.
func (s *server) signalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+" API!")
}

func (s *server) apiInfo(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{
		"service": s.deps.Conf.AppName,
		"version": s.deps.Conf.Build,
		"env":     s.deps.Conf.Env,
	})
}

func (s *server) health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"status": "healthy"})
}

func (s *server) authTest(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"message": "Authentication successful",
		"user": echo.Map{
			"user_id": claims.Subject,
			"email":   claims.Email,
			"role":    claims.ResolvedRole(),
		},
	})
}
