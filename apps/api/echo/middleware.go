package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ecole/core/policy"
	"github.com/trezcool/ecole/core/session"
)

// authenticate rejects requests without a live session.
func (a *authenticator) authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		token := a.token(ctx)
		if token == "" {
			return errUnauthorized
		}
		sess, err := a.sessions.Resolve(ctx.Request().Context(), token)
		if err != nil {
			if err == session.ErrInvalidSession {
				return errUnauthorized
			}
			return errors.Wrap(err, "resolving session")
		}
		ctx.Set(contextSessionKey, sess)
		return next(ctx)
	}
}

// authorize is the single role gate: the user of the request must hold a role allowed to perform op.
func (a *authenticator) authorize(op policy.Operation) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := a.contextUser(ctx)
			if err != nil {
				return err
			}
			if !policy.Allowed(op, usr.Role) {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}
