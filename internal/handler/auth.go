package handler

import (
    "context"  // provides context with cancellation for store calls
    "net/http" // HTTP status codes and primitives
    "strings"  // string manipulation utilities
    "time"     // timeouts for store calls

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/iliyamo/art-gallery/internal/media"      // upload payloads
    "github.com/iliyamo/art-gallery/internal/middleware" // authenticated account accessor
    "github.com/iliyamo/art-gallery/internal/model"      // account types
    "github.com/iliyamo/art-gallery/internal/service"    // auth flow orchestrator
)

// opTimeout bounds the store work of a single request.
const opTimeout = 5 * time.Second

// AuthFlow is the subset of service.AuthService used by the handlers.
type AuthFlow interface {
    Register(ctx context.Context, in service.RegisterInput) (*model.Account, error)
    Login(ctx context.Context, username, password string) (string, error)
    UpdateProfile(ctx context.Context, accountID string, patch model.AccountPatch, avatar *media.Upload) (*model.Account, error)
}

// AuthHandler bundles dependencies for /user endpoints.
type AuthHandler struct {
    Auth          AuthFlow
    UploadTimeout time.Duration // extra time granted when a file is attached
}

func NewAuthHandler(auth AuthFlow, uploadTimeout time.Duration) *AuthHandler {
    return &AuthHandler{Auth: auth, UploadTimeout: uploadTimeout}
}

// ----- DTOs -----

// Both userName (what the web client sends) and username are accepted.
type registerReq struct {
    UserName    string `json:"userName" form:"userName" validate:"required,max=64"`
    Username    string `json:"username" form:"username"`
    Password    string `json:"password" form:"password" validate:"required"`
    FirstName   string `json:"firstName" form:"firstName" validate:"max=100"`
    LastName    string `json:"lastName" form:"lastName" validate:"max=100"`
    Email       string `json:"email" form:"email" validate:"required,email,max=255"`
    PhoneNumber string `json:"phoneNumber" form:"phoneNumber" validate:"max=32"`
    Address     string `json:"address" form:"address" validate:"max=255"`
}

type loginReq struct {
    UserName string `json:"userName" form:"userName" validate:"required"`
    Username string `json:"username" form:"username"`
    Password string `json:"password" form:"password" validate:"required"`
}

type tokenResp struct {
    Token string `json:"token"`
}

// profilePatchReq is the JSON form of an account update; nil means unchanged.
type profilePatchReq struct {
    FirstName   *string `json:"firstName"`
    LastName    *string `json:"lastName"`
    Email       *string `json:"email" validate:"omitempty,email"`
    PhoneNumber *string `json:"phoneNumber"`
    Address     *string `json:"address"`
}

func (r profilePatchReq) toPatch() model.AccountPatch {
    return model.AccountPatch{
        FirstName:   r.FirstName,
        LastName:    r.LastName,
        Email:       r.Email,
        PhoneNumber: r.PhoneNumber,
        Address:     r.Address,
    }
}

// withTimeout returns the request context bounded by opTimeout, plus the
// upload allowance when a file is attached.
func (h *AuthHandler) withTimeout(c echo.Context, upload bool) (context.Context, context.CancelFunc) {
    d := opTimeout
    if upload {
        d += h.UploadTimeout
    }
    return context.WithTimeout(c.Request().Context(), d)
}

// Register: create the account.  An optional "image" file becomes the avatar.
func (h *AuthHandler) Register(c echo.Context) error {
    var req registerReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if strings.TrimSpace(req.UserName) == "" {
        req.UserName = req.Username
    }
    req.UserName = strings.TrimSpace(req.UserName)
    req.Email = strings.TrimSpace(req.Email)
    if err := c.Validate(&req); err != nil {
        return writeError(c, err)
    }

    avatar, closer, err := formUpload(c, "image")
    if err != nil {
        return writeError(c, err)
    }
    if closer != nil {
        defer closer.Close()
    }

    ctx, cancel := h.withTimeout(c, avatar != nil)
    defer cancel()

    acct, err := h.Auth.Register(ctx, service.RegisterInput{
        Username:    req.UserName,
        Password:    req.Password,
        FirstName:   req.FirstName,
        LastName:    req.LastName,
        Email:       req.Email,
        PhoneNumber: req.PhoneNumber,
        Address:     req.Address,
        Avatar:      avatar,
    })
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, acct)
}

// Login: verify credentials and return a signed token.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if strings.TrimSpace(req.UserName) == "" {
        req.UserName = req.Username
    }
    if err := c.Validate(&req); err != nil {
        return writeError(c, err)
    }

    ctx, cancel := h.withTimeout(c, false)
    defer cancel()

    token, err := h.Auth.Login(ctx, req.UserName, req.Password)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, tokenResp{Token: token})
}

// Me returns the authenticated account.
func (h *AuthHandler) Me(c echo.Context) error {
    acct := middleware.CurrentAccount(c)
    if acct == nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    return c.JSON(http.StatusOK, acct)
}

// Update patches the caller's own profile from JSON or form fields.  An
// "image" file replaces the avatar.
func (h *AuthHandler) Update(c echo.Context) error {
    acct := middleware.CurrentAccount(c)
    if acct == nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }

    var req profilePatchReq
    if isForm(c) {
        req = profilePatchReq{
            FirstName:   optionalField(c, "firstName"),
            LastName:    optionalField(c, "lastName"),
            Email:       optionalField(c, "email"),
            PhoneNumber: optionalField(c, "phoneNumber"),
            Address:     optionalField(c, "address"),
        }
    } else if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if err := c.Validate(&req); err != nil {
        return writeError(c, err)
    }

    avatar, closer, err := formUpload(c, "image")
    if err != nil {
        return writeError(c, err)
    }
    if closer != nil {
        defer closer.Close()
    }

    ctx, cancel := h.withTimeout(c, avatar != nil)
    defer cancel()

    updated, err := h.Auth.UpdateProfile(ctx, acct.ID, req.toPatch(), avatar)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, updated)
}

// Profile answers the public profile placeholder for :name.
func (h *AuthHandler) Profile(c echo.Context) error {
    return c.String(http.StatusOK, "This is "+c.Param("name")+"'s profile")
}
