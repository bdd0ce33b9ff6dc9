package share

import (
	"errors"
	"net/http"

	"filevault/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RegisterRoutes mounts sharing operations under the provided router group.
func RegisterRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	group.POST("/shares", handler.shareFiles)
	group.GET("/shares", handler.listSharedWithMe)
}

type httpHandler struct {
	service *Service
}

type shareRequest struct {
	Files      []string `json:"files" binding:"required,min=1"`
	Email      string   `json:"email" binding:"required,email"`
	Privileges []string `json:"privileges" binding:"required,min=1"`
}

func (h *httpHandler) shareFiles(c *gin.Context) {
	granterID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req shareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fileIDs := make([]uuid.UUID, 0, len(req.Files))
	for _, raw := range req.Files {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file identifier"})
			return
		}
		fileIDs = append(fileIDs, id)
	}

	if err := h.service.Share(c.Request.Context(), granterID, req.Email, fileIDs, req.Privileges); err != nil {
		switch {
		case errors.Is(err, ErrUnknownPrivilege):
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown privilege"})
		case errors.Is(err, ErrUnknownRecipient):
			c.JSON(http.StatusBadRequest, gin.H{"error": "no user with that email"})
		case errors.Is(err, ErrSelfShare):
			c.JSON(http.StatusBadRequest, gin.H{"error": "you cannot share files with their owner"})
		case errors.Is(err, ErrNotOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": "only the owner can share a file"})
		case errors.Is(err, ErrFileNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to share files"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "files shared"})
}

func (h *httpHandler) listSharedWithMe(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	shared, err := h.service.ListSharedWith(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list shared files"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"files": shared})
}
