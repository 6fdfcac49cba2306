package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sodfa-app/sodfa-server/internal/dto"
	"github.com/sodfa-app/sodfa-server/internal/service"
	"github.com/sodfa-app/sodfa-server/pkg/apperror"
	"github.com/sodfa-app/sodfa-server/pkg/response"
	"github.com/sodfa-app/sodfa-server/pkg/validator"
)

type ReactionHandler struct {
	service     service.ReactionService
	redisClient *redis.Client
	reactLimit  time.Duration
}

func NewReactionHandler(service service.ReactionService, redisClient *redis.Client, reactLimit time.Duration) *ReactionHandler {
	return &ReactionHandler{
		service:     service,
		redisClient: redisClient,
		reactLimit:  reactLimit,
	}
}

func (h *ReactionHandler) React(c *gin.Context) {
	storyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrNotFound)
		return
	}

	var req dto.ReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	actor, err := response.GetIdentity(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	allowed, err := service.CheckAndSetRateLimit(c.Request.Context(), h.redisClient, actor.OwnerKey, "react", h.reactLimit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	if !allowed {
		response.ResponseError(c, apperror.ErrRateLimitExceeded)
		return
	}

	result, err := h.service.React(c.Request.Context(), storyID, req.Type, actor)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *ReactionHandler) Check(c *gin.Context) {
	storyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrNotFound)
		return
	}

	actor, err := response.GetIdentity(c)
	if err != nil {
		// No identity means no prior reaction to report.
		c.JSON(http.StatusOK, dto.ReactionState{Reacted: false, Type: nil})
		return
	}

	state, err := h.service.CheckReaction(c.Request.Context(), storyID, actor)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

func (h *ReactionHandler) Counts(c *gin.Context) {
	storyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrNotFound)
		return
	}

	likes, loves, err := h.service.GetCounts(c.Request.Context(), storyID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"likes": likes, "loves": loves})
}
