package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sodfa-app/sodfa-server/internal/dto"
	"github.com/sodfa-app/sodfa-server/internal/service"
	"github.com/sodfa-app/sodfa-server/pkg/response"
	"github.com/sodfa-app/sodfa-server/pkg/validator"
)

type AuthHandler struct {
	service service.AuthService
}

func NewAuthHandler(service service.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	var req dto.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	resp, err := h.service.SignUp(c.Request.Context(), req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	resp, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Guest issues an ephemeral shadow session. The client calls this before
// reacting or commenting when it has neither an account nor a client id.
func (h *AuthHandler) Guest(c *gin.Context) {
	resp, err := h.service.GuestSession(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}
