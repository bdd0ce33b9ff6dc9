package presigned

import (
	"errors"
	"net/http"
	"time"

	"filevault/internal/auth"
	"filevault/internal/file"
	"filevault/internal/share"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RegisterRoutes mounts the download link endpoint under the provided group.
func RegisterRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	group.GET("/files/:fileID/link", handler.downloadLink)
}

type httpHandler struct {
	service *Service
}

func (h *httpHandler) downloadLink(c *gin.Context) {
	actorID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	fileID, err := uuid.Parse(c.Param("fileID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file identifier"})
		return
	}

	var ttl time.Duration
	if raw := c.Query("ttl"); raw != "" {
		ttl, err = time.ParseDuration(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ttl"})
			return
		}
	}

	link, err := h.service.DownloadLink(c.Request.Context(), actorID, fileID, ttl)
	if err != nil {
		switch {
		case errors.Is(err, share.ErrFileNotFound), errors.Is(err, file.ErrFileNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		case errors.Is(err, share.ErrNoAccess), errors.Is(err, share.ErrInsufficientPrivilege):
			c.JSON(http.StatusForbidden, gin.H{"error": "you do not have access to this file"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create download link"})
		}
		return
	}

	c.JSON(http.StatusOK, link)
}
