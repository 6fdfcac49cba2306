package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sodfa-app/sodfa-server/internal/dto"
	"github.com/sodfa-app/sodfa-server/internal/service"
	"github.com/sodfa-app/sodfa-server/pkg/apperror"
	"github.com/sodfa-app/sodfa-server/pkg/response"
	"github.com/sodfa-app/sodfa-server/pkg/validator"
)

type AdminHandler struct {
	storyService service.StoryService
}

func NewAdminHandler(storyService service.StoryService) *AdminHandler {
	return &AdminHandler{storyService: storyService}
}

// ListStories lists stories for moderation, defaulting to the pending queue.
func (h *AdminHandler) ListStories(c *gin.Context) {
	status := c.DefaultQuery("status", "pending")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	stories, meta, err := h.storyService.ListForModeration(c.Request.Context(), status, page, limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": stories, "meta": meta})
}

func (h *AdminHandler) ModerateStory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrNotFound)
		return
	}

	var req dto.ModerateStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	if err := h.storyService.Moderate(c.Request.Context(), id, req.Status); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "story " + req.Status})
}
