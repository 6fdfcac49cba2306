package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sodfa-app/sodfa-server/internal/dto"
	"github.com/sodfa-app/sodfa-server/internal/service"
	"github.com/sodfa-app/sodfa-server/pkg/apperror"
	"github.com/sodfa-app/sodfa-server/pkg/response"
)

type ProfileHandler struct {
	service service.ProfileService
}

func NewProfileHandler(service service.ProfileService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

func (h *ProfileHandler) Me(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	user, err := h.service.GetProfile(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// Update accepts multipart form data: display_name, bio, and an optional
// avatar file forwarded to the image storage.
func (h *ProfileHandler) Update(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	req := dto.UpdateProfileRequest{
		DisplayName: c.PostForm("display_name"),
	}
	if bio, ok := c.GetPostForm("bio"); ok {
		req.Bio = &bio
	}

	var avatar *service.AvatarFile
	if fileHeader, err := c.FormFile("avatar"); err == nil {
		file, err := fileHeader.Open()
		if err != nil {
			response.ResponseError(c, err)
			return
		}
		defer file.Close()
		avatar = &service.AvatarFile{Reader: file, FileName: fileHeader.Filename}
	}

	user, err := h.service.UpdateProfile(c.Request.Context(), userID, req, avatar)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func currentUserID(c *gin.Context) (uuid.UUID, error) {
	userIDStr, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, apperror.ErrUnauthorized
	}
	userID, err := uuid.Parse(userIDStr.(string))
	if err != nil {
		return uuid.Nil, apperror.ErrUnauthorized
	}
	return userID, nil
}
