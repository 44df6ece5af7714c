package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/brandpulse/brandpulse/app/database"
)

func NewHandler(brandRepo database.BrandRepository, updateRepo database.UpdateRepository,
	trigger TriggerInterface) *Handler {
	return &Handler{
		brandRepo:  brandRepo,
		updateRepo: updateRepo,
		trigger:    trigger,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := gin.H{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"scheduler": h.trigger.State().String(),
	}

	if brandCount, err := h.brandRepo.GetBrandCount(c.Request.Context()); err == nil {
		health["brands"] = brandCount
	}

	c.JSON(http.StatusOK, health)
}

// GetFeed returns active updates for the followed brands given in the
// brands query parameter, newest first. An empty follow list is a
// valid request, not an error.
func (h *Handler) GetFeed(c *gin.Context) {
	page, limit := paginationParams(c)

	brandIDs := splitIDs(c.Query("brands"))
	if len(brandIDs) == 0 {
		c.JSON(http.StatusOK, FeedResponse{
			Success:    true,
			Updates:    []UpdateResponse{},
			Pagination: buildPagination(1, limit, 0),
			Message:    "Follow some brands to see their updates!",
		})
		return
	}

	updates, total, err := h.updateRepo.GetFeedUpdates(c.Request.Context(), brandIDs, page, limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_feed_updates", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to fetch updates"})
		return
	}

	c.JSON(http.StatusOK, FeedResponse{
		Success:    true,
		Updates:    toUpdateResponses(updates),
		Pagination: buildPagination(page, limit, total),
	})
}

// GetBrandUpdates returns one brand's active updates.
func (h *Handler) GetBrandUpdates(c *gin.Context) {
	brandID := c.Param("id")
	page, limit := paginationParams(c)

	brand, err := h.brandRepo.GetBrand(c.Request.Context(), brandID)
	if err != nil {
		slog.Error("Database error", "operation", "get_brand", "brand_id", brandID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to fetch brand"})
		return
	}
	if brand == nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Brand not found"})
		return
	}

	updates, total, err := h.updateRepo.GetBrandUpdates(c.Request.Context(), brandID, page, limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_brand_updates", "brand_id", brandID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to fetch brand updates"})
		return
	}

	c.JSON(http.StatusOK, FeedResponse{
		Success:    true,
		Updates:    toUpdateResponses(updates),
		Pagination: buildPagination(page, limit, total),
	})
}

func (h *Handler) TrackView(c *gin.Context) {
	count, err := h.updateRepo.IncrementViewCount(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to update view count"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "viewCount": count})
}

// TriggerFetch starts a batch run in the background and returns
// immediately. The caller learns whether a run started, never its
// eventual outcome; that is visible via stats and logs.
func (h *Handler) TriggerFetch(c *gin.Context) {
	started := h.trigger.TriggerNow()

	message := "Feed fetch started in background"
	if !started {
		message = "Feed fetch already in progress"
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"started": started,
		"message": message,
	})
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.updateRepo.GetStats(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "get_stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to fetch stats"})
		return
	}

	recent, err := h.updateRepo.GetRecentUpdates(c.Request.Context(), 10)
	if err != nil {
		slog.Error("Database error", "operation", "get_recent_updates", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to fetch stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats": gin.H{
			"totalUpdates":  stats.Total,
			"byOrigin":      stats.ByOrigin,
			"byType":        stats.ByType,
			"recentUpdates": toUpdateResponses(recent),
		},
	})
}

// CreateUpdate manually creates an update for brands without a feed.
func (h *Handler) CreateUpdate(c *gin.Context) {
	var req CreateUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Missing required fields"})
		return
	}

	brand, err := h.brandRepo.GetBrand(c.Request.Context(), req.BrandID)
	if err != nil {
		slog.Error("Database error", "operation", "get_brand", "brand_id", req.BrandID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to create update"})
		return
	}
	if brand == nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Brand not found"})
		return
	}

	publishedDate := time.Now().UTC()
	if req.PublishedDate != nil {
		publishedDate = *req.PublishedDate
	}

	updateType := req.UpdateType
	if updateType == "" {
		updateType = database.UpdateTypeGeneral
	}

	update := &database.Update{
		BrandID:       req.BrandID,
		Title:         req.Title,
		Description:   req.Description,
		ImageURL:      req.ImageURL,
		SourceURL:     req.SourceURL,
		UpdateType:    updateType,
		PublishedDate: publishedDate,
		Origin:        database.OriginManual,
		IsActive:      true,
	}

	if err := h.updateRepo.Insert(c.Request.Context(), update); err != nil {
		if errors.Is(err, database.ErrInvalidUpdate) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
			return
		}
		slog.Error("Database error", "operation", "insert_update", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to create update"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "update": toUpdateResponse(*update)})
}

func (h *Handler) DeleteUpdate(c *gin.Context) {
	if err := h.updateRepo.SoftDelete(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to delete update"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListBrands is the operational brand listing with fetch state,
// so operators can spot sources that stopped producing.
func (h *Handler) ListBrands(c *gin.Context) {
	brands, err := h.brandRepo.GetBrands(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "get_brands", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to fetch brands"})
		return
	}

	out := make([]gin.H, 0, len(brands))
	for _, brand := range brands {
		out = append(out, gin.H{
			"id":            brand.ID,
			"name":          brand.Name,
			"category":      brand.Category,
			"feedUrl":       brand.FeedURL,
			"fetchEnabled":  brand.FetchEnabled,
			"lastFetchedAt": brand.LastFetchedAt,
			"verified":      brand.IsVerified,
		})
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "brands": out, "total": len(out)})
}

func paginationParams(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

func splitIDs(raw string) []string {
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
