package middleware

// identity.go holds the accessors for the account attached by Authorize.
// Handlers read it through CurrentAccount; the rate limiter keys on the
// account id, or "anon" for unauthenticated requests.

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/art-gallery/internal/model"
)

const accountKey = "account"

func setAccount(c echo.Context, a *model.Account) {
    c.Set(accountKey, a)
}

// CurrentAccount returns the authenticated account, or nil for anonymous
// requests.
func CurrentAccount(c echo.Context) *model.Account {
    a, _ := c.Get(accountKey).(*model.Account)
    return a
}
