package handler

import (
    "errors"
    "io"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/art-gallery/internal/media"
)

// isMultipart reports whether the request carries a multipart form.
func isMultipart(c echo.Context) bool {
    return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

// isForm reports whether the body is url-encoded or multipart form data.
func isForm(c echo.Context) bool {
    return isMultipart(c) ||
        strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationForm)
}

// formUpload opens the file sent under field.  It returns nil when the
// request has no such file.  The caller must close the returned closer.
func formUpload(c echo.Context, field string) (*media.Upload, io.Closer, error) {
    if !isMultipart(c) {
        return nil, nil, nil
    }
    fh, err := c.FormFile(field)
    if errors.Is(err, http.ErrMissingFile) {
        return nil, nil, nil
    }
    if err != nil {
        return nil, nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+field+" upload")
    }
    f, err := fh.Open()
    if err != nil {
        return nil, nil, err
    }
    return &media.Upload{
        Filename:    fh.Filename,
        ContentType: fh.Header.Get(echo.HeaderContentType),
        Size:        fh.Size,
        Body:        f,
    }, f, nil
}

// optionalField returns a pointer to the form value for key, or nil when the
// key was not sent at all.
func optionalField(c echo.Context, key string) *string {
    params, err := c.FormParams()
    if err != nil {
        return nil
    }
    if vals, ok := params[key]; ok && len(vals) > 0 {
        v := vals[0]
        return &v
    }
    return nil
}
