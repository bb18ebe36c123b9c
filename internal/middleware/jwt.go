package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "context"  // context passed to the authenticator
    "errors"   // errors.Is for token failures
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/iliyamo/art-gallery/internal/logutil"
    "github.com/iliyamo/art-gallery/internal/model"
    "github.com/iliyamo/art-gallery/internal/utils"
)

// Mode selects what Authorize does with a missing or invalid token.
type Mode int

const (
    // Optional lets the request through anonymously.
    Optional Mode = iota
    // Required answers 401.
    Required
)

// Authenticator resolves a raw bearer token to an account.  It returns an
// error wrapping utils.ErrTokenInvalid for bad or orphaned tokens.
type Authenticator interface {
    Authenticate(ctx context.Context, raw string) (*model.Account, error)
}

// bearerToken extracts the token from "Authorization: Bearer <token>".  The
// scheme is matched case-insensitively.
func bearerToken(c echo.Context) (string, bool) {
    auth := c.Request().Header.Get(echo.HeaderAuthorization)
    const prefix = "bearer "
    if len(auth) <= len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
        return "", false
    }
    raw := strings.TrimSpace(auth[len(prefix):])
    return raw, raw != ""
}

// Authorize returns an Echo middleware that verifies the bearer token,
// resolves its subject to an account and stores that account in the context
// for CurrentAccount.  In Optional mode a missing or invalid token leaves the
// request anonymous; in Required mode it is answered with 401.  Store
// failures are logged and, on Required routes, returned as internal errors.
func Authorize(authn Authenticator, mode Mode) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            raw, ok := bearerToken(c)
            if !ok {
                if mode == Required {
                    return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
                }
                return next(c)
            }

            ctx := c.Request().Context()
            acct, err := authn.Authenticate(ctx, raw)
            if err != nil {
                if errors.Is(err, utils.ErrTokenInvalid) {
                    logutil.GetOrDefault(ctx).Debug().Err(err).Msg("rejected bearer token")
                    if mode == Required {
                        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
                    }
                    return next(c)
                }
                logutil.GetOrDefault(ctx).Error().Err(err).Msg("resolve bearer token")
                if mode == Required {
                    return err
                }
                return next(c)
            }

            setAccount(c, acct)
            return next(c)
        }
    }
}
