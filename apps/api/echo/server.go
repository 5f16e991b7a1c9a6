package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/activity"
	"github.com/trezcool/ecole/core/grade"
	"github.com/trezcool/ecole/core/group"
	"github.com/trezcool/ecole/core/material"
	"github.com/trezcool/ecole/core/message"
	"github.com/trezcool/ecole/core/notification"
	"github.com/trezcool/ecole/core/policy"
	"github.com/trezcool/ecole/core/schedule"
	"github.com/trezcool/ecole/core/session"
	"github.com/trezcool/ecole/core/subject"
	"github.com/trezcool/ecole/core/user"
	"github.com/trezcool/ecole/services/filestore"
)

type (
	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		DisableReqLogs bool

		Sessions        *session.Manager
		UserSvc         *user.Service
		GroupSvc        *group.Service
		SubjectSvc      *subject.Service
		MaterialSvc     *material.Service
		GradeSvc        *grade.Service
		ScheduleSvc     *schedule.Service
		ActivitySvc     *activity.Service
		NotificationSvc *notification.Service
		MessageSvc      *message.Service

		Validate   *validator.Validate
		Translator ut.Translator
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ http.Handler = (*Server)(nil)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.BodyLimit(bodyLimit(conf.Storage.MaxUploadSize)))

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)

	auth := &authenticator{
		conf:     conf,
		sessions: s.deps.Sessions,
		users:    s.deps.UserSvc,
	}

	api := s.app.Group("/api")
	registerAuthAPI(api, auth, s.deps.UserSvc, s.deps.Validate)

	authed := api.Group("", auth.authenticate)
	registerUserAPI(authed, auth, s.deps.UserSvc, s.deps.Validate)
	registerGroupAPI(authed, auth, s.deps.GroupSvc, s.deps.Validate)
	registerSubjectAPI(authed, auth, s.deps.SubjectSvc, s.deps.Validate)
	registerMaterialAPI(authed, auth, s.deps.MaterialSvc, s.deps.Validate, conf.Storage.MaxUploadSize)
	registerGradeAPI(authed, auth, s.deps.GradeSvc, s.deps.UserSvc, s.deps.Validate, s.deps.Translator)
	registerScheduleAPI(authed, auth, s.deps.ScheduleSvc, s.deps.Validate)
	registerActivityAPI(authed, auth, s.deps.ActivitySvc)
	registerNotificationAPI(authed, auth, s.deps.NotificationSvc)
	registerMessageAPI(authed, auth, s.deps.MessageSvc, s.deps.Validate)

	// files of the local storage backend
	if conf.Storage.Backend == filestore.BackendLocal {
		s.app.GET(
			filestore.LocalURLPrefix+"/*",
			echo.StaticDirectoryHandler(echo.MustSubFS(s.app.Filesystem, conf.Storage.LocalDir), false),
			auth.authenticate, auth.authorize(policy.MaterialDownload),
		)
	}
}

// Start blocks until the server stops. Listener failures are sent to Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Host); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

// Shutdown stops accepting requests and waits for the outstanding ones until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	signal.Stop(s.shutdown)
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+" API!")
}

// bodyLimit leaves room for the multipart envelope around the largest accepted upload.
func bodyLimit(maxUpload int64) string {
	const mib = 1 << 20
	if maxUpload <= 0 {
		maxUpload = material.MaxFileSize
	}
	return strconv.FormatInt(maxUpload/mib+1, 10) + "M"
}
