package middleware // middleware provides shared request processing for handlers

import (
    "net/http" // http package defines standard HTTP status codes
    "github.com/labstack/echo/v4" // echo provides middleware chaining and context
)

// RequireAccount aborts with 401 unless a previous Authorize middleware
// attached an account.  It lets a group run Authorize in Optional mode and
// still guard individual routes.
func RequireAccount() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if CurrentAccount(c) == nil {
                return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
            }
            return next(c)
        }
    }
}
