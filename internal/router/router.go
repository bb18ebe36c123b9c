package router // package router defines how HTTP routes are registered for the API

import (
	"context"

	"github.com/labstack/echo/v4"                        // import the Echo web framework to handle routing
	echomw "github.com/labstack/echo/v4/middleware"      // recover and body limit middleware
	"github.com/redis/go-redis/v9"                       // shared client for the limiter and the listing cache
	"github.com/rs/zerolog"                              // base logger for the request logger

	"github.com/iliyamo/art-gallery/internal/config"     // cache and rate limit settings
	"github.com/iliyamo/art-gallery/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/art-gallery/internal/middleware" // import middleware for token authorization, caching and limiting
)

// Gallery placeholder texts.
const (
	artGalleryText         = "Art gallery here!"
	illustratorGalleryText = "Illustrator gallery here!"
	challengesText         = "Challenges here!"
)

// Deps collects everything RegisterRoutes wires.  Redis may be nil, in which
// case the limiter and the listing cache pass requests through.
type Deps struct {
	Logger    zerolog.Logger
	Authn     middleware.Authenticator
	Auth      *handler.AuthHandler
	Products  *handler.ProductHandler
	Site      *handler.SiteHandler
	Probes    map[string]handler.Probe
	Redis     *redis.Client
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	BodyLimit string // e.g. "12M"; empty disables the limit
}

// RegisterRoutes installs the error handler, validator, global middleware and
// every route on e.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = handler.HTTPErrorHandler

	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(d.Logger))
	if d.BodyLimit != "" {
		e.Use(echomw.BodyLimit(d.BodyLimit))
	}

	// Site and probes.
	e.GET("/", d.Site.Index)
	e.Static("/static", d.Site.PublicDir)
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(d.Probes))

	registerUser(e, d)
	registerProducts(e, d)

	// Gallery sections without content yet.
	e.GET("/art-gallery", handler.Placeholder(artGalleryText))
	e.GET("/illustrator-gallery", handler.Placeholder(illustratorGalleryText))
	e.GET("/challenges", handler.Placeholder(challengesText))

	e.RouteNotFound("/*", handler.NotFound)
}

// registerUser maps /user.  Register and login are rate limited; me and
// update need a valid token; profiles are public.
func registerUser(e *echo.Echo, d Deps) {
	limiter := middleware.NewTokenBucket(d.RateLimit, d.Redis)
	required := middleware.Authorize(d.Authn, middleware.Required)

	g := e.Group("/user")
	g.POST("/register", d.Auth.Register, limiter)
	g.POST("/login", d.Auth.Login, limiter)
	g.GET("/me", d.Auth.Me, required)
	g.POST("/update", d.Auth.Update, required)
	g.GET("/:name", d.Auth.Profile, middleware.Authorize(d.Authn, middleware.Optional))
}

// registerProducts maps /product.  The whole group resolves tokens when
// present; writes additionally require an account.  Anonymous listings are
// cached in Redis and purged after every write.
func registerProducts(e *echo.Echo, d Deps) {
	if d.Redis != nil && d.Products.OnChange == nil {
		cfg, rdb := d.Cache, d.Redis
		d.Products.OnChange = func(ctx context.Context) error {
			return middleware.PurgeCache(ctx, cfg, rdb)
		}
	}
	cache := middleware.NewRedisCache(d.Cache, d.Redis)

	g := e.Group("/product", middleware.Authorize(d.Authn, middleware.Optional))
	g.GET("", d.Products.List, cache)
	g.GET("/find", d.Products.Find, cache)
	g.POST("/add", d.Products.Add, middleware.RequireAccount())
	g.POST("/update", d.Products.Update, middleware.RequireAccount())
}
