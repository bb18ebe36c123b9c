package handler

import (
    "errors"
    "net/http"

    "github.com/go-playground/validator/v10"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/art-gallery/internal/logutil"
    "github.com/iliyamo/art-gallery/internal/media"
    "github.com/iliyamo/art-gallery/internal/repository"
    "github.com/iliyamo/art-gallery/internal/service"
    "github.com/iliyamo/art-gallery/internal/utils"
)

// statusFor maps known errors to a status and a client safe message.  ok is
// false for unexpected errors, which are reported as 500 without detail.
func statusFor(err error) (status int, msg string, ok bool) {
    var he *echo.HTTPError
    var ve validator.ValidationErrors
    switch {
    case errors.Is(err, service.ErrDuplicateAccount):
        return http.StatusConflict, service.ErrDuplicateAccount.Error(), true
    case errors.Is(err, service.ErrInvalidCredentials):
        return http.StatusUnauthorized, service.ErrInvalidCredentials.Error(), true
    case errors.Is(err, service.ErrInvalidInput):
        return http.StatusBadRequest, err.Error(), true
    case errors.As(err, &ve):
        return http.StatusBadRequest, validationMessage(ve), true
    case errors.Is(err, utils.ErrPasswordTooLong):
        return http.StatusBadRequest, utils.ErrPasswordTooLong.Error(), true
    case errors.Is(err, utils.ErrTokenInvalid):
        return http.StatusUnauthorized, "invalid token", true
    case errors.Is(err, repository.ErrEmptyPatch):
        return http.StatusBadRequest, repository.ErrEmptyPatch.Error(), true
    case errors.Is(err, repository.ErrNotFound):
        return http.StatusNotFound, "not found", true
    case errors.Is(err, repository.ErrForbidden):
        return http.StatusForbidden, "forbidden", true
    case errors.Is(err, media.ErrTooLarge):
        return http.StatusRequestEntityTooLarge, media.ErrTooLarge.Error(), true
    case errors.Is(err, media.ErrMediaDisabled):
        return http.StatusServiceUnavailable, media.ErrMediaDisabled.Error(), true
    case errors.As(err, &he):
        if m, isStr := he.Message.(string); isStr {
            return he.Code, m, true
        }
        return he.Code, http.StatusText(he.Code), true
    }
    return http.StatusInternalServerError, "internal error", false
}

func validationMessage(ve validator.ValidationErrors) string {
    if len(ve) == 0 {
        return "invalid body"
    }
    fe := ve[0]
    return fe.Field() + " failed " + fe.Tag() + " validation"
}

// writeError renders err as {"error": msg}.  Unexpected errors are logged
// with full detail and answered with a generic message.
func writeError(c echo.Context, err error) error {
    status, msg, ok := statusFor(err)
    if !ok {
        logutil.GetOrDefault(c.Request().Context()).Error().Err(err).
            Str("path", c.Request().URL.Path).Msg("request failed")
    }
    return c.JSON(status, echo.Map{"error": msg})
}

// HTTPErrorHandler replaces echo's default handler so errors returned from
// middleware and handlers share the same JSON shape and logging.
func HTTPErrorHandler(err error, c echo.Context) {
    if c.Response().Committed {
        return
    }
    if c.Request().Method == http.MethodHead {
        status, _, _ := statusFor(err)
        _ = c.NoContent(status)
        return
    }
    _ = writeError(c, err)
}
