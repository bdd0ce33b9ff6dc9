package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"filevault/internal/config"
	"filevault/internal/metrics"
	"filevault/internal/share"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// metadataStore abstracts the file registry.
type metadataStore interface {
	Create(ctx context.Context, meta Metadata) (Metadata, error)
	Get(ctx context.Context, fileID uuid.UUID) (Metadata, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Metadata, error)
	Rename(ctx context.Context, fileID uuid.UUID, newName string) (Metadata, error)
	Delete(ctx context.Context, fileID uuid.UUID) error
	NameExists(ctx context.Context, ownerID uuid.UUID, name string) (bool, error)
}

// objectStore abstracts the blob store collaborator.
type objectStore interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// authorizer decides whether an actor may perform an operation on a file.
type authorizer interface {
	Authorize(ctx context.Context, actorID, fileID uuid.UUID, op share.Privilege) error
}

// grantRevoker removes every grant referencing a file.
type grantRevoker interface {
	RevokeAllForFile(ctx context.Context, fileID uuid.UUID) error
}

// Service is the bulk file operations engine. Every mutating request passes
// through here, consulting the quota ledger (upload) or the access evaluator
// (everything else) before touching the registry or the blob store.
type Service struct {
	repo         metadataStore
	objects      objectStore
	objectBucket string
	quota        *QuotaLedger
	access       authorizer
	grants       grantRevoker
	limits       config.LimitsConfig
	allowedTypes map[string]struct{}
	log          *zap.Logger
}

// NewService constructs a file service.
func NewService(repo metadataStore, objects objectStore, objectBucket string, quota *QuotaLedger, access authorizer, grants grantRevoker, limits config.LimitsConfig, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	allowed := make(map[string]struct{}, len(limits.AllowedTypes))
	for _, ext := range limits.AllowedTypes {
		allowed[strings.ToLower(ext)] = struct{}{}
	}
	return &Service{
		repo:         repo,
		objects:      objects,
		objectBucket: objectBucket,
		quota:        quota,
		access:       access,
		grants:       grants,
		limits:       limits,
		allowedTypes: allowed,
		log:          log,
	}
}

// Upload validates the whole batch, admits it against the quota in one check,
// then stores each file blob-first so a failed registry insert leaves at
// worst an orphaned blob, never a dangling registry row.
func (s *Service) Upload(ctx context.Context, ownerID uuid.UUID, fileHeaders []*multipart.FileHeader) ([]Metadata, error) {
	if len(fileHeaders) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(fileHeaders) > s.limits.MaxUploadCount {
		return nil, ErrTooManyFiles
	}

	var totalBytes int64
	seen := make(map[string]struct{}, len(fileHeaders))
	for i, header := range fileHeaders {
		if err := s.validateUpload(ctx, ownerID, header, seen); err != nil {
			return nil, &BatchItemError{Index: i, Name: header.Filename, Err: err}
		}
		totalBytes += header.Size
	}

	denial, err := s.quota.CheckAdmission(ctx, ownerID, totalBytes)
	if err != nil {
		return nil, err
	}
	if denial != nil {
		metrics.QuotaDenials.Inc()
		s.log.Info("upload denied: storage limit exceeded",
			zap.String("owner_id", ownerID.String()),
			zap.Int64("incoming_bytes", denial.IncomingBytes),
			zap.Int64("current_usage", denial.CurrentUsage),
			zap.Int64("limit", denial.Limit),
		)
		return nil, denial
	}

	created := make([]Metadata, 0, len(fileHeaders))
	for i, header := range fileHeaders {
		meta, err := s.storeOne(ctx, ownerID, header)
		if err != nil {
			return created, &BatchItemError{Index: i, Name: header.Filename, Err: err}
		}
		created = append(created, meta)
	}
	return created, nil
}

func (s *Service) validateUpload(ctx context.Context, ownerID uuid.UUID, header *multipart.FileHeader, seen map[string]struct{}) error {
	if header == nil {
		return ErrNameRequired
	}

	name := strings.TrimSpace(header.Filename)
	if name == "" {
		return ErrNameRequired
	}
	if len(name) > s.limits.MaxFileNameSize {
		return ErrNameTooLong
	}
	if header.Size > s.limits.MaxFileSize {
		return ErrFileTooLarge
	}

	ext := extensionOf(name)
	if _, ok := s.allowedTypes[ext]; !ok {
		return ErrTypeNotAllowed
	}

	if _, dup := seen[name]; dup {
		return ErrDuplicateName
	}
	seen[name] = struct{}{}

	exists, err := s.repo.NameExists(ctx, ownerID, name)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicateName
	}
	return nil
}

func (s *Service) storeOne(ctx context.Context, ownerID uuid.UUID, header *multipart.FileHeader) (Metadata, error) {
	meta := Metadata{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Name:      strings.TrimSpace(header.Filename),
		SizeBytes: header.Size,
		Extension: extensionOf(header.Filename),
	}

	payload, err := header.Open()
	if err != nil {
		return Metadata{}, fmt.Errorf("open upload file: %w", err)
	}
	defer payload.Close()

	putOpts := minio.PutObjectOptions{ContentType: detectContentType(header)}
	if _, err := s.objects.PutObject(ctx, s.objectBucket, meta.ObjectName(), payload, meta.SizeBytes, putOpts); err != nil {
		return Metadata{}, fmt.Errorf("store object: %w", err)
	}

	stored, err := s.repo.Create(ctx, meta)
	if err != nil {
		_ = s.objects.RemoveObject(ctx, s.objectBucket, meta.ObjectName(), minio.RemoveObjectOptions{})
		return Metadata{}, err
	}

	metrics.FilesUploaded.Inc()
	s.log.Info("file uploaded",
		zap.String("owner_id", ownerID.String()),
		zap.String("file_id", stored.ID.String()),
		zap.String("file_name", stored.Name),
		zap.Int64("size_bytes", stored.SizeBytes),
	)
	return stored, nil
}

// Download authorizes every requested file, bounds the total transfer size,
// and assembles a temporary zip archive. Closing the returned archive removes
// it from disk.
func (s *Service) Download(ctx context.Context, actorID uuid.UUID, fileIDs []uuid.UUID) (*Archive, error) {
	if len(fileIDs) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(fileIDs) > s.limits.MaxDownloadCount {
		return nil, ErrTooManyFiles
	}

	members := make([]Metadata, 0, len(fileIDs))
	var totalBytes int64
	for i, fileID := range fileIDs {
		if err := s.access.Authorize(ctx, actorID, fileID, share.PrivilegeDownload); err != nil {
			return nil, &BatchItemError{Index: i, Name: fileID.String(), Err: err}
		}
		meta, err := s.repo.Get(ctx, fileID)
		if err != nil {
			return nil, &BatchItemError{Index: i, Name: fileID.String(), Err: err}
		}
		members = append(members, meta)
		totalBytes += meta.SizeBytes
	}

	if totalBytes > s.limits.MaxFileSize {
		s.log.Info("download aborted: total size exceeds limit",
			zap.String("actor_id", actorID.String()),
			zap.Int64("total_bytes", totalBytes),
			zap.Int64("limit", s.limits.MaxFileSize),
		)
		return nil, ErrDownloadTooLarge
	}

	archive, err := buildArchive(ctx, s.objects, s.objectBucket, members)
	if err != nil {
		return nil, err
	}

	metrics.ArchivesBuilt.Inc()
	return archive, nil
}

// Preview returns a single file's metadata and content for inline display.
func (s *Service) Preview(ctx context.Context, actorID, fileID uuid.UUID) (Metadata, io.ReadCloser, error) {
	if err := s.access.Authorize(ctx, actorID, fileID, share.PrivilegeDownload); err != nil {
		return Metadata{}, nil, err
	}

	meta, err := s.repo.Get(ctx, fileID)
	if err != nil {
		return Metadata{}, nil, err
	}

	object, err := s.objects.GetObject(ctx, s.objectBucket, meta.ObjectName(), minio.GetObjectOptions{})
	if err != nil {
		return Metadata{}, nil, fmt.Errorf("fetch object: %w", err)
	}
	return meta, object, nil
}

// List returns the actor's own files.
func (s *Service) List(ctx context.Context, ownerID uuid.UUID) ([]Metadata, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// Rename changes a file's display name. Uniqueness is scoped to the file's
// owner, so a grantee holding the rename privilege competes with the owner's
// other file names.
func (s *Service) Rename(ctx context.Context, actorID, fileID uuid.UUID, newName string) (Metadata, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return Metadata{}, ErrNameRequired
	}
	if len(newName) > s.limits.MaxFileNameSize {
		return Metadata{}, ErrNameTooLong
	}

	if err := s.access.Authorize(ctx, actorID, fileID, share.PrivilegeRename); err != nil {
		return Metadata{}, err
	}

	meta, err := s.repo.Rename(ctx, fileID, newName)
	if err != nil {
		return Metadata{}, err
	}

	s.log.Info("file renamed",
		zap.String("actor_id", actorID.String()),
		zap.String("file_id", fileID.String()),
		zap.String("new_name", newName),
	)
	return meta, nil
}

// Delete removes the requested files, blob first, then grants, then the
// registry row, and reports how many were deleted before any failure.
func (s *Service) Delete(ctx context.Context, actorID uuid.UUID, fileIDs []uuid.UUID) (int, error) {
	if len(fileIDs) == 0 {
		return 0, ErrEmptyBatch
	}

	deleted := 0
	for i, fileID := range fileIDs {
		if err := s.deleteOne(ctx, actorID, fileID); err != nil {
			return deleted, &BatchItemError{Index: i, Name: fileID.String(), Err: err}
		}
		deleted++
	}
	return deleted, nil
}

func (s *Service) deleteOne(ctx context.Context, actorID, fileID uuid.UUID) error {
	if err := s.access.Authorize(ctx, actorID, fileID, share.PrivilegeDelete); err != nil {
		return err
	}

	meta, err := s.repo.Get(ctx, fileID)
	if err != nil {
		return err
	}

	if err := s.objects.RemoveObject(ctx, s.objectBucket, meta.ObjectName(), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object: %w", err)
	}

	// Grants go before the registry row so no grant ever references a
	// deleted file.
	if err := s.grants.RevokeAllForFile(ctx, fileID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, fileID); err != nil && !errors.Is(err, ErrFileNotFound) {
		return err
	}

	metrics.FilesDeleted.Inc()
	s.log.Info("file deleted",
		zap.String("actor_id", actorID.String()),
		zap.String("file_id", fileID.String()),
		zap.String("file_name", meta.Name),
	)
	return nil
}

func extensionOf(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

func detectContentType(header *multipart.FileHeader) string {
	if header == nil {
		return "application/octet-stream"
	}
	if contentType := header.Header.Get("Content-Type"); contentType != "" {
		return contentType
	}
	return "application/octet-stream"
}
