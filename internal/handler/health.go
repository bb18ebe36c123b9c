package handler // declare the package name; contains HTTP handlers

import (
    "context"  // bounds each readiness probe
    "net/http" // net/http provides status codes and response helpers
    "sort"     // stable output order for probe results
    "time"     // probe timeout

    "github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Health is a simple liveness endpoint used by load balancers and
// monitoring systems to verify that the process is serving.  It returns
// a plain text "ok" message with an HTTP 200 status code.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}

// Probe checks one backing dependency (store, cache).
type Probe func(ctx context.Context) error

// Ready runs every probe with a short timeout and answers 200 when all pass,
// 503 otherwise.  The body names each dependency with "ok" or "down"; probe
// errors are not exposed.
func Ready(probes map[string]Probe) echo.HandlerFunc {
    names := make([]string, 0, len(probes))
    for n := range probes {
        names = append(names, n)
    }
    sort.Strings(names)

    return func(c echo.Context) error {
        ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
        defer cancel()

        status := http.StatusOK
        out := make(map[string]string, len(names))
        for _, n := range names {
            if err := probes[n](ctx); err != nil {
                status = http.StatusServiceUnavailable
                out[n] = "down"
                continue
            }
            out[n] = "ok"
        }
        return c.JSON(status, out)
    }
}
