package api

import (
	"context"
	"errors"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/imgmarket/storefront/internal/domain"
	"github.com/imgmarket/storefront/internal/market"
)

// Marketplace is the slice of the market core the boundary consumes.
//
//go:generate mockgen -source=handler.go -destination=../mocks/marketplace.go -package=mocks -mock_names=Marketplace=MockMarketplace
type Marketplace interface {
	RefreshAll(ctx context.Context) (map[int64]error, error)
	ProjectItem(ctx context.Context, id int64) (*market.ItemProjection, error)
	ProjectCollection(ctx context.Context) ([]*market.ItemProjection, map[int64]error, error)
	Purchase(ctx context.Context, id int64) (*domain.TransactionOutcome, error)
	Resell(ctx context.Context, id int64) (*domain.TransactionOutcome, error)
	UpdatePrice(ctx context.Context, id int64, newPrice *big.Int) (*domain.TransactionOutcome, error)
}

// CatalogLister enumerates the catalog identifiers for list endpoints.
type CatalogLister interface {
	IDs() []int64
}

// Handler serves the rendering boundary. It holds no rendering state:
// every response is a read-only projection or a workflow outcome, and
// the core's in-flight guard makes repeated invocations safe.
type Handler struct {
	market  Marketplace
	catalog CatalogLister
}

// NewHandler creates the REST handler.
func NewHandler(m Marketplace, catalog CatalogLister) *Handler {
	return &Handler{market: m, catalog: catalog}
}

// SetupRoutes configures all REST routes
func SetupRoutes(router *gin.Engine, h *Handler) {
	router.GET("/health", h.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/items", h.ListItems)
		v1.GET("/items/:id", h.GetItem)
		v1.GET("/items/:id/history", h.GetItemHistory)
		v1.GET("/collection", h.GetCollection)
		v1.POST("/refresh", h.Refresh)
		v1.POST("/items/:id/purchase", h.Purchase)
		v1.POST("/items/:id/resale", h.Resell)
		v1.PUT("/items/:id/price", h.UpdatePrice)
	}
}

// HealthCheck returns the health status of the API
// GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListItems returns the projection of every catalog item
// GET /api/v1/items
func (h *Handler) ListItems(c *gin.Context) {
	items := make([]*market.ItemProjection, 0)
	for _, id := range h.catalog.IDs() {
		projection, err := h.market.ProjectItem(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		items = append(items, projection)
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// GetItem returns the projection of one item
// GET /api/v1/items/:id
func (h *Handler) GetItem(c *gin.Context) {
	id, ok := itemID(c)
	if !ok {
		return
	}
	projection, err := h.market.ProjectItem(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, projection)
}

// GetItemHistory returns the viewer's purchase history for one item
// GET /api/v1/items/:id/history
func (h *Handler) GetItemHistory(c *gin.Context) {
	id, ok := itemID(c)
	if !ok {
		return
	}
	projection, err := h.market.ProjectItem(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "history": projection.History})
}

// GetCollection returns the viewer's owned items from fresh ledger
// state, with identifiers whose refresh failed reported separately
// GET /api/v1/collection
func (h *Handler) GetCollection(c *gin.Context) {
	owned, failed, err := h.market.ProjectCollection(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	failures := make(map[string]string, len(failed))
	for id, ferr := range failed {
		failures[strconv.FormatInt(id, 10)] = ferr.Error()
	}
	c.JSON(http.StatusOK, gin.H{"items": owned, "failed": failures})
}

// Refresh re-reads ledger state for the whole catalog
// POST /api/v1/refresh
func (h *Handler) Refresh(c *gin.Context) {
	failed, err := h.market.RefreshAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	failures := make(map[string]string, len(failed))
	for id, ferr := range failed {
		failures[strconv.FormatInt(id, 10)] = ferr.Error()
	}
	c.JSON(http.StatusOK, gin.H{"failed": failures})
}

// Purchase submits a purchase of one item for the active viewer
// POST /api/v1/items/:id/purchase
func (h *Handler) Purchase(c *gin.Context) {
	id, ok := itemID(c)
	if !ok {
		return
	}
	outcome, err := h.market.Purchase(c.Request.Context(), id)
	if err != nil {
		respondOutcomeError(c, outcome, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

// Resell submits a resale of one held purchase
// POST /api/v1/items/:id/resale
func (h *Handler) Resell(c *gin.Context) {
	id, ok := itemID(c)
	if !ok {
		return
	}
	outcome, err := h.market.Resell(c.Request.Context(), id)
	if err != nil {
		respondOutcomeError(c, outcome, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

type priceUpdateRequest struct {
	// NewPrice is a decimal wei amount
	NewPrice string `json:"new_price" binding:"required"`
}

// UpdatePrice submits an admin price change
// PUT /api/v1/items/:id/price
func (h *Handler) UpdatePrice(c *gin.Context) {
	id, ok := itemID(c)
	if !ok {
		return
	}
	var req priceUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "new_price is required")
		return
	}
	newPrice, ok := new(big.Int).SetString(req.NewPrice, 10)
	if !ok || newPrice.Sign() <= 0 {
		respondBadRequest(c, "new_price must be a positive decimal wei amount")
		return
	}
	outcome, err := h.market.UpdatePrice(c.Request.Context(), id, newPrice)
	if err != nil {
		if re, isRevert := domain.IsRevert(err); isRevert && looksLikeOwnershipRevert(re.Reason) {
			// The expected non-owner rejection gets a distinct message.
			c.JSON(http.StatusForbidden, gin.H{
				"error":  "price update rejected: are you the store owner?",
				"reason": re.Reason,
			})
			return
		}
		respondOutcomeError(c, outcome, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

func itemID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 0 {
		respondBadRequest(c, "item id must be a non-negative integer")
		return 0, false
	}
	return id, true
}

func looksLikeOwnershipRevert(reason string) bool {
	lower := strings.ToLower(reason)
	return strings.Contains(lower, "owner") || strings.Contains(lower, "not authorized")
}

// respondError maps core errors onto boundary status codes. Revert
// reasons travel verbatim so the UI can present a precise message.
func respondError(c *gin.Context, err error) {
	respondOutcomeError(c, nil, err)
}

func respondOutcomeError(c *gin.Context, outcome *domain.TransactionOutcome, err error) {
	body := gin.H{"error": err.Error()}
	if outcome != nil {
		body["outcome"] = outcome
	}
	if re, ok := domain.IsRevert(err); ok {
		body["reason"] = re.Reason
		c.JSON(http.StatusUnprocessableEntity, body)
		return
	}
	switch {
	case errors.Is(err, domain.ErrBusy):
		c.JSON(http.StatusConflict, body)
	case errors.Is(err, domain.ErrNotEligible), errors.Is(err, domain.ErrNotOwned):
		c.JSON(http.StatusUnprocessableEntity, body)
	case errors.Is(err, domain.ErrItemNotFound):
		c.JSON(http.StatusNotFound, body)
	case errors.Is(err, domain.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, body)
	case errors.Is(err, domain.ErrTimeout), errors.Is(err, domain.ErrStaleState):
		body["hint"] = "outcome unknown: re-query ledger state before retrying"
		c.JSON(http.StatusGatewayTimeout, body)
	default:
		c.JSON(http.StatusInternalServerError, body)
	}
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}
