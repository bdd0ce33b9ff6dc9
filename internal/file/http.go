package file

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"filevault/internal/auth"
	"filevault/internal/share"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RegisterRoutes mounts file operations under the provided router group.
func RegisterRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	group.POST("/files", handler.uploadFiles)
	group.GET("/files", handler.listFiles)
	group.POST("/files/download", handler.downloadFiles)
	group.PATCH("/files/rename", handler.renameFile)
	group.DELETE("/files", handler.deleteFiles)
	group.GET("/files/:fileID/preview", handler.previewFile)
}

type httpHandler struct {
	service *Service
}

type identifiersRequest struct {
	Files []string `json:"files" binding:"required,min=1"`
}

type renameRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Filename   string `json:"filename" binding:"required"`
}

func (h *httpHandler) uploadFiles(c *gin.Context) {
	ownerID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form required"})
		return
	}
	fileHeaders := form.File["files"]

	created, err := h.service.Upload(c.Request.Context(), ownerID, fileHeaders)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"files": created})
}

func (h *httpHandler) listFiles(c *gin.Context) {
	ownerID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	list, err := h.service.List(c.Request.Context(), ownerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list files"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"files": list})
}

func (h *httpHandler) downloadFiles(c *gin.Context) {
	actorID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	fileIDs, ok := bindIdentifiers(c)
	if !ok {
		return
	}

	archive, err := h.service.Download(c.Request.Context(), actorID, fileIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	defer archive.Close()

	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", `attachment; filename="Files.zip"`)
	c.Header("Content-Length", fmt.Sprintf("%d", archive.Size()))

	if _, err := io.Copy(c.Writer, archive); err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
}

func (h *httpHandler) renameFile(c *gin.Context) {
	actorID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fileID, err := uuid.Parse(req.Identifier)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file identifier"})
		return
	}

	meta, err := h.service.Rename(c.Request.Context(), actorID, fileID, req.Filename)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": meta.ID, "name": meta.Name})
}

func (h *httpHandler) deleteFiles(c *gin.Context) {
	actorID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	fileIDs, ok := bindIdentifiers(c)
	if !ok {
		return
	}

	deleted, err := h.service.Delete(c.Request.Context(), actorID, fileIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Deleted %d files", deleted)})
}

func (h *httpHandler) previewFile(c *gin.Context) {
	actorID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	fileID, err := uuid.Parse(c.Param("fileID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file id"})
		return
	}

	meta, reader, err := h.service.Preview(c.Request.Context(), actorID, fileID)
	if err != nil {
		respondError(c, err)
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", meta.Name))
	c.Header("Content-Length", fmt.Sprintf("%d", meta.SizeBytes))

	if _, err := io.Copy(c.Writer, reader); err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
}

func bindIdentifiers(c *gin.Context) ([]uuid.UUID, bool) {
	var req identifiersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	fileIDs := make([]uuid.UUID, 0, len(req.Files))
	for _, raw := range req.Files {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file identifier"})
			return nil, false
		}
		fileIDs = append(fileIDs, id)
	}
	return fileIDs, true
}

// respondError maps service failures to HTTP responses, surfacing which batch
// item failed when that context exists.
func respondError(c *gin.Context, err error) {
	payload := gin.H{"error": userMessage(err)}

	var itemErr *BatchItemError
	if errors.As(err, &itemErr) {
		payload["file"] = itemErr.Name
		payload["item"] = itemErr.Index + 1
	}

	c.JSON(statusFor(err), payload)
}

func statusFor(err error) int {
	var quotaErr *QuotaExceededError
	switch {
	case errors.As(err, &quotaErr):
		return http.StatusForbidden
	case errors.Is(err, ErrFileNotFound), errors.Is(err, share.ErrFileNotFound):
		return http.StatusNotFound
	case errors.Is(err, share.ErrNoAccess), errors.Is(err, share.ErrInsufficientPrivilege):
		return http.StatusForbidden
	case errors.Is(err, ErrDuplicateName):
		return http.StatusConflict
	case errors.Is(err, ErrDownloadTooLarge):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrEmptyBatch),
		errors.Is(err, ErrTooManyFiles),
		errors.Is(err, ErrFileTooLarge),
		errors.Is(err, ErrTypeNotAllowed),
		errors.Is(err, ErrNameTooLong),
		errors.Is(err, ErrNameRequired):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func userMessage(err error) string {
	var quotaErr *QuotaExceededError
	if errors.As(err, &quotaErr) {
		return quotaErr.Error()
	}

	for _, known := range []error{
		ErrFileNotFound, ErrDuplicateName, ErrNameTooLong, ErrNameRequired,
		ErrFileTooLarge, ErrTypeNotAllowed, ErrEmptyBatch, ErrTooManyFiles,
		ErrDownloadTooLarge,
		share.ErrFileNotFound, share.ErrNoAccess, share.ErrInsufficientPrivilege,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return "internal error"
}
