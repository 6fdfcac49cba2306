package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sodfa-app/sodfa-server/internal/dto"
	"github.com/sodfa-app/sodfa-server/internal/model"
	"github.com/sodfa-app/sodfa-server/internal/service"
	"github.com/sodfa-app/sodfa-server/pkg/apperror"
	"github.com/sodfa-app/sodfa-server/pkg/response"
	"github.com/sodfa-app/sodfa-server/pkg/validator"
)

type CommentHandler struct {
	service      service.CommentService
	redisClient  *redis.Client
	commentLimit time.Duration
}

func NewCommentHandler(service service.CommentService, redisClient *redis.Client, commentLimit time.Duration) *CommentHandler {
	return &CommentHandler{
		service:      service,
		redisClient:  redisClient,
		commentLimit: commentLimit,
	}
}

func (h *CommentHandler) Add(c *gin.Context) {
	storyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrNotFound)
		return
	}

	var req dto.AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	actor, err := response.GetIdentity(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	allowed, err := service.CheckAndSetRateLimit(c.Request.Context(), h.redisClient, actor.OwnerKey, "comment", h.commentLimit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	if !allowed {
		response.ResponseError(c, apperror.ErrRateLimitExceeded)
		return
	}

	comment, err := h.service.AddComment(c.Request.Context(), storyID, req.Text, actor)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toCommentResponse(comment))
}

func (h *CommentHandler) List(c *gin.Context) {
	storyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrNotFound)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	comments, degraded, err := h.service.ListComments(c.Request.Context(), storyID, limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	resp := dto.CommentListResponse{
		Comments: make([]dto.CommentResponse, 0, len(comments)),
		Degraded: degraded,
	}
	for _, comment := range comments {
		resp.Comments = append(resp.Comments, toCommentResponse(comment))
	}

	c.JSON(http.StatusOK, resp)
}

func toCommentResponse(comment *model.Comment) dto.CommentResponse {
	return dto.CommentResponse{
		ID:          comment.ID,
		StoryID:     comment.StoryID,
		AuthorID:    comment.AuthorID,
		Author:      comment.Author,
		IsAnonymous: comment.IsAnonymous,
		Content:     comment.Content,
		CreatedAt:   comment.CreatedAt,
	}
}
