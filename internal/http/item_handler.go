package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"catlog/internal/service"
)

// ItemHandler holds dependencies for marketplace endpoints.
type ItemHandler struct {
	logger   *zap.Logger
	itemServ *service.ItemService
}

// NewItemHandler creates an ItemHandler with its dependencies.
func NewItemHandler(logger *zap.Logger, itemServ *service.ItemService) *ItemHandler {
	return &ItemHandler{
		logger:   logger,
		itemServ: itemServ,
	}
}

// CreateItem handles POST /items.
func (h *ItemHandler) CreateItem(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	var req struct {
		Title       string `json:"title" binding:"required"`
		Description string `json:"description"`
		Price       string `json:"price" binding:"required"`
		Media       string `json:"media"`
		Location    string `json:"location"`
		Latitude    string `json:"latitude"`
		Longitude   string `json:"longitude"`
		Status      string `json:"status"`
		Condition   string `json:"condition"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create item request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	item, err := h.itemServ.Create(c.Request.Context(), claims.UserID, service.ItemInput{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Media:       req.Media,
		Location:    req.Location,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Status:      req.Status,
		Condition:   req.Condition,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPrice),
			errors.Is(err, service.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		default:
			h.logger.Error("create item failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create item"})
			return
		}
	}

	c.JSON(http.StatusCreated, gin.H{"item": item})
}

// UpdateItem handles PUT /items/:id.
func (h *ItemHandler) UpdateItem(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Price       *string `json:"price"`
		Media       *string `json:"media"`
		Location    *string `json:"location"`
		Latitude    *string `json:"latitude"`
		Longitude   *string `json:"longitude"`
		Status      *string `json:"status"`
		Condition   *string `json:"condition"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid update item request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	item, err := h.itemServ.Update(c.Request.Context(), claims.UserID, c.Param("id"), service.ItemUpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Media:       req.Media,
		Location:    req.Location,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Status:      req.Status,
		Condition:   req.Condition,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrItemNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
			return
		case errors.Is(err, service.ErrInvalidPrice),
			errors.Is(err, service.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		default:
			h.logger.Error("update item failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update item"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"item": item})
}

// DeleteItem handles DELETE /items/:id.
func (h *ItemHandler) DeleteItem(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	if err := h.itemServ.Delete(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		if errors.Is(err, service.ErrItemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
			return
		}
		h.logger.Error("delete item failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete item"})
		return
	}

	c.Status(http.StatusNoContent)
}

// GetItem handles GET /items/:id.
func (h *ItemHandler) GetItem(c *gin.Context) {
	item, err := h.itemServ.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrItemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
			return
		}
		h.logger.Error("get item failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load item"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item})
}

// ListItems handles GET /items, the open marketplace listing.
func (h *ItemHandler) ListItems(c *gin.Context) {
	items, err := h.itemServ.ListOpen(c.Request.Context())
	if err != nil {
		h.logger.Error("list items failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list items"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// SearchItems handles GET /search-item?q=...
func (h *ItemHandler) SearchItems(c *gin.Context) {
	items, err := h.itemServ.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.logger.Error("search items failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not search"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// ToggleSave handles POST /items/:id/save.
func (h *ItemHandler) ToggleSave(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	status, err := h.itemServ.ToggleSave(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrItemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
			return
		}
		h.logger.Error("toggle save failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not toggle save"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": status})
}

// CreateOffer handles POST /offers.
func (h *ItemHandler) CreateOffer(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	var req struct {
		ItemID  string `json:"item_id" binding:"required"`
		Amount  string `json:"amount" binding:"required"`
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create offer request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	offer, err := h.itemServ.CreateOffer(c.Request.Context(), claims.UserID, service.OfferInput{
		ItemID:  req.ItemID,
		Amount:  req.Amount,
		Message: req.Message,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrItemNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
			return
		case errors.Is(err, service.ErrInvalidPrice):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		default:
			h.logger.Error("create offer failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create offer"})
			return
		}
	}

	c.JSON(http.StatusCreated, gin.H{"offer": offer})
}
