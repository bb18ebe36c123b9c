package handler

import (
    "net/http"
    "path/filepath"

    "github.com/labstack/echo/v4"
)

// SiteHandler serves the landing page and the gallery placeholders.
type SiteHandler struct {
    PublicDir string
}

func NewSiteHandler(publicDir string) *SiteHandler {
    return &SiteHandler{PublicDir: publicDir}
}

// Index serves PUBLIC_DIR/index.html.
func (h *SiteHandler) Index(c echo.Context) error {
    return c.File(filepath.Join(h.PublicDir, "index.html"))
}

// Placeholder answers a fixed text for sections that have no content yet.
func Placeholder(text string) echo.HandlerFunc {
    return func(c echo.Context) error {
        return c.String(http.StatusOK, text)
    }
}

// NotFound is the catch-all for unknown routes.
func NotFound(c echo.Context) error {
    return c.HTML(http.StatusNotFound, "<h1>404</h1>")
}
