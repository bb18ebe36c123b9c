package handler

import (
    "context"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/art-gallery/internal/logutil"
    "github.com/iliyamo/art-gallery/internal/media"
    "github.com/iliyamo/art-gallery/internal/middleware"
    "github.com/iliyamo/art-gallery/internal/model"
    "github.com/iliyamo/art-gallery/internal/service"
)

// Catalog is the subset of service.CatalogService used by the handlers.
type Catalog interface {
    Create(ctx context.Context, owner *model.Account, in service.CreateProductInput) (*model.Product, error)
    List(ctx context.Context, f model.ProductFilter) ([]model.Product, error)
    Update(ctx context.Context, owner *model.Account, id string, patch model.ProductPatch, image *media.Upload) (*model.Product, error)
}

// ProductHandler serves /product.  OnChange, when set, runs after a
// successful write; the router uses it to purge cached listings.
type ProductHandler struct {
    Catalog       Catalog
    UploadTimeout time.Duration
    OnChange      func(ctx context.Context) error
}

func NewProductHandler(catalog Catalog, uploadTimeout time.Duration) *ProductHandler {
    return &ProductHandler{Catalog: catalog, UploadTimeout: uploadTimeout}
}

type createProductReq struct {
    Title       string  `json:"title" form:"title" validate:"required,max=200"`
    Description string  `json:"description" form:"description"`
    Price       float64 `json:"price" form:"price" validate:"gte=0"`
    Color       string  `json:"color" form:"color" validate:"max=64"`
    Dimensions  string  `json:"dimensions" form:"dimensions" validate:"max=64"`
    Type        string  `json:"type" form:"type" validate:"max=100"`
}

type updateProductReq struct {
    ID          string   `json:"id" validate:"required"`
    Title       *string  `json:"title" validate:"omitempty,min=1,max=200"`
    Description *string  `json:"description"`
    Price       *float64 `json:"price" validate:"omitempty,gte=0"`
    Color       *string  `json:"color"`
    Dimensions  *string  `json:"dimensions"`
    Type        *string  `json:"type"`
}

type listResp struct {
    Items []model.Product `json:"items"`
}

func (h *ProductHandler) withTimeout(c echo.Context, upload bool) (context.Context, context.CancelFunc) {
    d := opTimeout
    if upload {
        d += h.UploadTimeout
    }
    return context.WithTimeout(c.Request().Context(), d)
}

func (h *ProductHandler) changed(ctx context.Context) {
    if h.OnChange == nil {
        return
    }
    if err := h.OnChange(ctx); err != nil {
        logutil.GetOrDefault(ctx).Warn().Err(err).Msg("purge listing cache failed")
    }
}

// Add lists a new product owned by the caller.
func (h *ProductHandler) Add(c echo.Context) error {
    owner := middleware.CurrentAccount(c)
    if owner == nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req createProductReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if err := c.Validate(&req); err != nil {
        return writeError(c, err)
    }

    image, closer, err := formUpload(c, "image")
    if err != nil {
        return writeError(c, err)
    }
    if closer != nil {
        defer closer.Close()
    }

    ctx, cancel := h.withTimeout(c, image != nil)
    defer cancel()

    p, err := h.Catalog.Create(ctx, owner, service.CreateProductInput{
        Title:       req.Title,
        Description: req.Description,
        Price:       req.Price,
        Color:       req.Color,
        Dimensions:  req.Dimensions,
        Type:        req.Type,
        Image:       image,
    })
    if err != nil {
        return writeError(c, err)
    }
    h.changed(ctx)
    return c.JSON(http.StatusCreated, p)
}

// List returns products filtered by the optional type and owner query params.
func (h *ProductHandler) List(c echo.Context) error {
    return h.list(c, model.ProductFilter{
        Type:  strings.TrimSpace(c.QueryParam("type")),
        Owner: strings.TrimSpace(c.QueryParam("owner")),
    })
}

// Find filters by medium, "oil on canvas" unless ?type= says otherwise.
func (h *ProductHandler) Find(c echo.Context) error {
    t := strings.TrimSpace(c.QueryParam("type"))
    if t == "" {
        t = service.DefaultFindType
    }
    return h.list(c, model.ProductFilter{Type: t})
}

func (h *ProductHandler) list(c echo.Context, f model.ProductFilter) error {
    ctx, cancel := h.withTimeout(c, false)
    defer cancel()

    items, err := h.Catalog.List(ctx, f)
    if err != nil {
        return writeError(c, err)
    }
    if items == nil {
        items = []model.Product{}
    }
    return c.JSON(http.StatusOK, listResp{Items: items})
}

// Update changes one of the caller's products.
func (h *ProductHandler) Update(c echo.Context) error {
    owner := middleware.CurrentAccount(c)
    if owner == nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }

    var req updateProductReq
    if isForm(c) {
        req = updateProductReq{
            Title:       optionalField(c, "title"),
            Description: optionalField(c, "description"),
            Color:       optionalField(c, "color"),
            Dimensions:  optionalField(c, "dimensions"),
            Type:        optionalField(c, "type"),
        }
        if id := optionalField(c, "id"); id != nil {
            req.ID = *id
        }
        if p := optionalField(c, "price"); p != nil {
            v, err := strconv.ParseFloat(strings.TrimSpace(*p), 64)
            if err != nil {
                return c.JSON(http.StatusBadRequest, echo.Map{"error": "price must be a number"})
            }
            req.Price = &v
        }
    } else if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if err := c.Validate(&req); err != nil {
        return writeError(c, err)
    }

    image, closer, err := formUpload(c, "image")
    if err != nil {
        return writeError(c, err)
    }
    if closer != nil {
        defer closer.Close()
    }

    ctx, cancel := h.withTimeout(c, image != nil)
    defer cancel()

    p, err := h.Catalog.Update(ctx, owner, req.ID, model.ProductPatch{
        Title:       req.Title,
        Description: req.Description,
        Price:       req.Price,
        Color:       req.Color,
        Dimensions:  req.Dimensions,
        Type:        req.Type,
    }, image)
    if err != nil {
        return writeError(c, err)
    }
    h.changed(ctx)
    return c.JSON(http.StatusOK, p)
}
