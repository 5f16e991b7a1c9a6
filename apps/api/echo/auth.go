package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/session"
	"github.com/trezcool/ecole/core/user"
)

var (
	contextSessionKey = "session"
	contextUserKey    = "user"
)

// authenticator resolves the session cookie of a request into its user.
type authenticator struct {
	conf     *core.Config
	sessions *session.Manager
	users    *user.Service
}

func (a *authenticator) newCookie(value string, expires time.Time) *http.Cookie {
	cookie := &http.Cookie{
		Name:     a.conf.Session.CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   a.conf.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}
	if value == "" {
		cookie.MaxAge = -1
	} else {
		cookie.Expires = expires
		cookie.MaxAge = int(time.Until(expires).Seconds())
	}
	return cookie
}

func (a *authenticator) token(ctx echo.Context) string {
	cookie, err := ctx.Cookie(a.conf.Session.CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// contextUser returns the user of the request session. Deleted and deactivated users are unauthorized.
func (a *authenticator) contextUser(ctx echo.Context) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}
	sess, ok := ctx.Get(contextSessionKey).(session.Session)
	if !ok {
		return user.User{}, errUnauthorized
	}

	usr, err := a.users.GetByID(ctx.Request().Context(), sess.UserID)
	if err != nil {
		if core.IsNotFound(err) {
			return user.User{}, errUnauthorized
		}
		return user.User{}, errors.Wrap(err, "finding user by ID")
	}
	if !usr.IsActive {
		return user.User{}, errUnauthorized
	}
	ctx.Set(contextUserKey, usr)
	return usr, nil
}

type authApi struct {
	auth     *authenticator
	svc      *user.Service
	validate *validator.Validate
}

func registerAuthAPI(g *echo.Group, auth *authenticator, svc *user.Service, validate *validator.Validate) {
	api := authApi{
		auth:     auth,
		svc:      svc,
		validate: validate,
	}

	ag := g.Group("/auth")

	// un-authed endpoints
	ag.POST("/login", api.login)
	ag.POST("/logout", api.logout)

	// authed endpoints
	ag.GET("/me", api.me, auth.authenticate)
	ag.POST("/change-password", api.changePassword, auth.authenticate)
}

// Handlers

func (api *authApi) login(ctx echo.Context) error {
	var data user.LoginCredentials
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginCredentials")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	reqCtx := ctx.Request().Context()
	usr, err := api.svc.Authenticate(reqCtx, data)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	token, sess, err := api.auth.sessions.Create(reqCtx, usr.ID)
	if err != nil {
		return errors.Wrap(err, "creating session")
	}

	ctx.SetCookie(api.auth.newCookie(token, sess.ExpiresAt))
	return ctx.JSON(http.StatusOK, LoginResponse{User: usr})
}

func (api *authApi) logout(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	if token := api.auth.token(ctx); token != "" {
		sess, existed, err := api.auth.sessions.Destroy(reqCtx, token)
		if err != nil {
			return errors.Wrap(err, "destroying session")
		}
		if existed {
			if err = api.svc.RecordLogout(reqCtx, sess.UserID); err != nil {
				return errors.Wrap(err, "recording logout")
			}
		}
	}

	ctx.SetCookie(api.auth.newCookie("", time.Time{}))
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Logged out successfully"})
}

func (api *authApi) me(ctx echo.Context) error {
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *authApi) changePassword(ctx echo.Context) error {
	usr, err := api.auth.contextUser(ctx)
	if err != nil {
		return err
	}

	var data user.ChangePassword
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChangePassword")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	if _, err = api.svc.ChangePassword(ctx.Request().Context(), usr, data); err != nil {
		return errors.Wrap(err, "changing password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password changed successfully"})
}

type (
	LoginResponse struct {
		User user.User `json:"user"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)
