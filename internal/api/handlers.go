package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chainwatch/price-compare/internal/apperr"
	adapterconfig "github.com/chainwatch/price-compare/internal/adapters/config"
	"github.com/chainwatch/price-compare/internal/auth"
	"github.com/chainwatch/price-compare/internal/cart"
	"github.com/chainwatch/price-compare/internal/savedcart"
	"github.com/chainwatch/price-compare/internal/store"
)

type handlers struct {
	deps Deps
}

func classifyErr(err error) *apperr.Error {
	return apperr.Classify(err)
}

// health reports store connectivity without a backend-specific status
// probe; the store interface already hides which backend is live.
func (h *handlers) health(c *gin.Context) {
	counts, err := h.deps.Store.Counts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "chains": counts.Chains, "branches": counts.Branches})
}

func (h *handlers) listChains(c *gin.Context) {
	chains, err := h.deps.Store.ListChains(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chains": chains})
}

func (h *handlers) listCities(c *gin.Context) {
	cities, err := h.deps.Store.ListCities(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cities": cities})
}

// search handles GET /search?q=&city=&limit=.
func (h *handlers) search(c *gin.Context) {
	query := c.Query("q")
	city := c.Query("city")
	if city == "" {
		respondError(c, apperr.InvalidInput("city_required", "city is required"))
		return
	}
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(c, apperr.InvalidInput("invalid_limit", "limit must be a positive integer"))
			return
		}
		limit = n
	}

	products, err := h.deps.Search.Search(c.Request.Context(), query, city, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h *handlers) productByBarcode(c *gin.Context) {
	barcode := c.Param("barcode")
	city := c.Query("city")
	if city == "" {
		respondError(c, apperr.InvalidInput("city_required", "city is required"))
		return
	}

	product, ok, err := h.deps.Search.ProductByBarcode(c.Request.Context(), barcode, city)
	if err != nil {
		respondError(c, err)
		return
	}
	if !ok {
		respondError(c, apperr.NotFound("product_not_found", "no branch in this city stocks that barcode"))
		return
	}
	c.JSON(http.StatusOK, product)
}

type cartItemRequest struct {
	Barcode  string `json:"barcode" binding:"required"`
	Quantity int    `json:"quantity" binding:"min=0"`
	Name     string `json:"name"`
}

type compareCartRequest struct {
	City  string            `json:"city" binding:"required"`
	Items []cartItemRequest `json:"items" binding:"required,min=1"`
}

func (h *handlers) compareCart(c *gin.Context) {
	var req compareCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.InvalidInput("invalid_request", err.Error()))
		return
	}

	items := make([]cart.Item, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, cart.Item{Barcode: it.Barcode, Quantity: it.Quantity, Name: it.Name})
	}

	comparison, err := h.deps.Cart.Compare(c.Request.Context(), items, req.City)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comparison)
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

func (h *handlers) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.InvalidInput("invalid_request", err.Error()))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	user, err := h.deps.Store.CreateUser(c.Request.Context(), req.Email, hash, time.Now().UTC())
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := h.deps.Issuer.Issue(user.UserID, user.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": token})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *handlers) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.InvalidInput("invalid_request", err.Error()))
		return
	}

	user, ok, err := h.deps.Store.UserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	if !ok || !auth.CheckPassword(user.PasswordHash, req.Password) {
		respondError(c, apperr.InvalidInput("invalid_credentials", "email or password is incorrect"))
		return
	}

	token, err := h.deps.Issuer.Issue(user.UserID, user.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *handlers) listSavedCarts(c *gin.Context) {
	userID := currentUserID(c)
	carts, err := h.deps.SavedCart.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"carts": carts})
}

type saveCartRequest struct {
	CartName string                  `json:"cart_name" binding:"required"`
	City     string                  `json:"city" binding:"required"`
	Items    []savedcart.StoredItem  `json:"items" binding:"required,min=1"`
}

func (h *handlers) saveCart(c *gin.Context) {
	var req saveCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.InvalidInput("invalid_request", err.Error()))
		return
	}
	for _, it := range req.Items {
		if it.Quantity < 0 {
			respondError(c, apperr.InvalidInput("invalid_quantity", "quantity must not be negative"))
			return
		}
	}

	userID := currentUserID(c)
	saved, err := h.deps.SavedCart.Save(c.Request.Context(), userID, req.CartName, req.City, req.Items)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *handlers) getSavedCart(c *gin.Context) {
	cartID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, apperr.InvalidInput("invalid_id", "cart id must be numeric"))
		return
	}

	userID := currentUserID(c)
	saved, ok, err := h.deps.SavedCart.Get(c.Request.Context(), userID, cartID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !ok {
		respondError(c, apperr.NotFound("cart_not_found", "saved cart not found"))
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *handlers) deleteSavedCart(c *gin.Context) {
	cartID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, apperr.InvalidInput("invalid_id", "cart id must be numeric"))
		return
	}

	userID := currentUserID(c)
	if err := h.deps.SavedCart.Delete(c.Request.Context(), userID, cartID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) compareSavedCart(c *gin.Context) {
	cartID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, apperr.InvalidInput("invalid_id", "cart id must be numeric"))
		return
	}

	userID := currentUserID(c)
	comparison, err := h.deps.SavedCart.CompareAgainstCurrentPrices(c.Request.Context(), h.deps.Cart, userID, cartID)
	if err != nil {
		var notFound *store.NotFoundError
		if errors.As(err, &notFound) {
			respondError(c, apperr.NotFound("cart_not_found", notFound.Error()))
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comparison)
}

// ingestChain triggers an on-demand ingestion pass for one chain,
// gated behind the internal-auth + service-rate-limit middleware
// group: AUTO_IMPORT covers boot time only, this covers
// operator-triggered re-ingestion.
func (h *handlers) ingestChain(c *gin.Context) {
	chainID := adapterconfig.ChainID(c.Param("chain"))
	adapter, ok := h.deps.Adapters[chainID]
	if !ok {
		respondError(c, apperr.InvalidInput("unknown_chain", "unknown chain: "+string(chainID)))
		return
	}

	summary, err := h.deps.Importer.ImportChain(c.Request.Context(), chainID, adapter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
