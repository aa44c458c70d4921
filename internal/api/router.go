// Package api wires the HTTP surface: public search/compare endpoints,
// an auth-gated saved-cart surface, and an internal admin group for
// triggering ingestion (internal auth + service rate limiting in
// front of the admin group, a per-request logging middleware in
// front of everything else).
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/chainwatch/price-compare/internal/adapters/base"
	adapterconfig "github.com/chainwatch/price-compare/internal/adapters/config"
	"github.com/chainwatch/price-compare/internal/auth"
	"github.com/chainwatch/price-compare/internal/cart"
	"github.com/chainwatch/price-compare/internal/importer"
	"github.com/chainwatch/price-compare/internal/middleware"
	"github.com/chainwatch/price-compare/internal/savedcart"
	"github.com/chainwatch/price-compare/internal/search"
	"github.com/chainwatch/price-compare/internal/store"
)

// Deps bundles every service the router dispatches into.
type Deps struct {
	Store       store.Store
	Search      *search.Service
	Cart        *cart.Comparator
	SavedCart   *savedcart.Service
	Issuer      *auth.TokenIssuer
	Importer    *importer.Importer
	Adapters    map[adapterconfig.ChainID]base.ChainAdapter
	Logger      *zerolog.Logger
}

// NewRouter builds the gin engine with every route group registered.
func NewRouter(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(d.Logger))

	h := &handlers{deps: d}

	router.GET("/health", h.health)

	router.GET("/chains", h.listChains)
	router.GET("/cities", h.listCities)
	router.GET("/search", h.search)
	router.GET("/products/:barcode", h.productByBarcode)
	router.POST("/cart/compare", h.compareCart)

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", h.register)
		authGroup.POST("/login", h.login)
	}

	carts := router.Group("/carts")
	carts.Use(bearerAuthMiddleware(d.Issuer))
	{
		carts.GET("", h.listSavedCarts)
		carts.POST("", h.saveCart)
		carts.GET("/:id", h.getSavedCart)
		carts.DELETE("/:id", h.deleteSavedCart)
		carts.GET("/:id/compare", h.compareSavedCart)
	}

	internal := router.Group("/internal")
	internal.Use(middleware.InternalAuthMiddleware(d.Logger))
	internal.Use(middleware.IngestionTriggerRateLimitMiddleware(d.Logger, 50, 100))
	{
		admin := internal.Group("/admin")
		{
			admin.POST("/ingest/:chain", h.ingestChain)
		}
	}

	return router
}

func requestLogger(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", query).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("ip", c.ClientIP()).
			Msg("http request")
	}
}

func respondError(c *gin.Context, err error) {
	appErr := classifyErr(err)
	c.JSON(appErr.Kind.HTTPStatus(), gin.H{"error": appErr.Code, "message": appErr.Message})
}
