package middleware

import (
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"

    "github.com/iliyamo/art-gallery/internal/logutil"
)

// RequestLogger propagates X-Request-ID (generating one when absent),
// stores a request scoped logger in the request context and writes one line
// per request, at warn for 4xx and error for 5xx.
func RequestLogger(base zerolog.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            req := c.Request()
            rid := req.Header.Get(echo.HeaderXRequestID)
            if rid == "" {
                rid = uuid.NewString()
            }
            c.Response().Header().Set(echo.HeaderXRequestID, rid)

            l := base.With().Str("request_id", rid).Logger()
            c.SetRequest(req.WithContext(logutil.WithLogger(req.Context(), l)))

            start := time.Now()
            err := next(c)
            if err != nil {
                // Let the error handler write the response so the status is known.
                c.Error(err)
            }

            status := c.Response().Status
            ev := l.Info()
            switch {
            case status >= 500:
                ev = l.Error().Err(err)
            case status >= 400:
                ev = l.Warn()
            }
            ev.Str("method", req.Method).
                Str("path", req.URL.Path).
                Str("route", c.Path()).
                Int("status", status).
                Int64("bytes", c.Response().Size).
                Dur("latency", time.Since(start)).
                Str("remote_ip", c.RealIP()).
                Msg("request")
            return nil
        }
    }
}
