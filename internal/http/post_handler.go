package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"catlog/internal/service"
)

// PostHandler holds dependencies for feed, post and comment endpoints.
type PostHandler struct {
	logger   *zap.Logger
	postServ *service.PostService
}

// NewPostHandler creates a PostHandler with its dependencies.
func NewPostHandler(logger *zap.Logger, postServ *service.PostService) *PostHandler {
	return &PostHandler{
		logger:   logger,
		postServ: postServ,
	}
}

// CreatePost handles POST /posts.
func (h *PostHandler) CreatePost(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	var req struct {
		Title   string `json:"title"`
		Content string `json:"content" binding:"required"`
		Media   string `json:"media"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create post request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	post, err := h.postServ.Create(c.Request.Context(), claims.UserID, service.PostInput{
		Title:   req.Title,
		Content: req.Content,
		Media:   req.Media,
	})
	if err != nil {
		if errors.Is(err, service.ErrEmptyContent) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("create post failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create post"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"post": post})
}

// UpdatePost handles PUT /posts/:id.
func (h *PostHandler) UpdatePost(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	var req struct {
		Title   *string `json:"title"`
		Content *string `json:"content"`
		Media   *string `json:"media"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid update post request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	post, err := h.postServ.Update(c.Request.Context(), claims.UserID, c.Param("id"), service.PostUpdateInput{
		Title:   req.Title,
		Content: req.Content,
		Media:   req.Media,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPostNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
			return
		case errors.Is(err, service.ErrEmptyContent):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		default:
			h.logger.Error("update post failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update post"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"post": post})
}

// DeletePost handles DELETE /posts/:id.
func (h *PostHandler) DeletePost(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	if err := h.postServ.Delete(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
			return
		}
		h.logger.Error("delete post failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete post"})
		return
	}

	c.Status(http.StatusNoContent)
}

// GetPost handles GET /posts/:id.
func (h *PostHandler) GetPost(c *gin.Context) {
	post, err := h.postServ.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
			return
		}
		h.logger.Error("get post failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load post"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": post})
}

// Explore handles GET /explore, the global feed.
func (h *PostHandler) Explore(c *gin.Context) {
	posts, err := h.postServ.ListAll(c.Request.Context())
	if err != nil {
		h.logger.Error("explore feed failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load feed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// Following handles GET /fyp, posts from followed accounts.
func (h *PostHandler) Following(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	posts, err := h.postServ.ListFollowing(c.Request.Context(), claims.UserID)
	if err != nil {
		h.logger.Error("following feed failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load feed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// SearchPosts handles GET /search?q=...
func (h *PostHandler) SearchPosts(c *gin.Context) {
	posts, err := h.postServ.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.logger.Error("search posts failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not search"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// CreateComment handles POST /comments.
func (h *PostHandler) CreateComment(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	var req struct {
		PostID   string `json:"post_id" binding:"required"`
		ParentID string `json:"parent_id"`
		Text     string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create comment request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	comment, err := h.postServ.CreateComment(c.Request.Context(), claims.UserID, service.CommentInput{
		PostID:   req.PostID,
		ParentID: req.ParentID,
		Text:     req.Text,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPostNotFound),
			errors.Is(err, service.ErrCommentNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		case errors.Is(err, service.ErrEmptyContent):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		default:
			h.logger.Error("create comment failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create comment"})
			return
		}
	}

	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

// DeleteComment handles DELETE /comments/:id.
func (h *PostHandler) DeleteComment(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	if err := h.postServ.DeleteComment(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		if errors.Is(err, service.ErrCommentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "comment not found"})
			return
		}
		h.logger.Error("delete comment failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete comment"})
		return
	}

	c.Status(http.StatusNoContent)
}

// ToggleLike handles POST /posts/:id/like.
func (h *PostHandler) ToggleLike(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	status, err := h.postServ.ToggleLike(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
			return
		}
		h.logger.Error("toggle like failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not toggle like"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": status})
}

// ToggleVerify handles POST /posts/:id/verify. Restricted to verified
// professionals.
func (h *PostHandler) ToggleVerify(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	status, err := h.postServ.ToggleVerify(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPostNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
			return
		case errors.Is(err, service.ErrNotProfessional):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		default:
			h.logger.Error("toggle verify failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not toggle verify"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": status})
}

// ReportPost handles POST /posts/:id/report.
func (h *PostHandler) ReportPost(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid report request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	report, err := h.postServ.Report(c.Request.Context(), claims.UserID, c.Param("id"), req.Reason)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
			return
		}
		h.logger.Error("report post failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not report post"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"report": report})
}
