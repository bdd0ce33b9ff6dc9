package presigned

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"filevault/internal/file"
	"filevault/internal/share"

	"github.com/google/uuid"
)

// urlSigner is the slice of the MinIO client used to mint links.
type urlSigner interface {
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
}

// metadataSource resolves file metadata by identifier.
type metadataSource interface {
	Get(ctx context.Context, fileID uuid.UUID) (file.Metadata, error)
}

// authorizer decides whether an actor may download a file.
type authorizer interface {
	Authorize(ctx context.Context, actorID, fileID uuid.UUID, op share.Privilege) error
}

// Link is a time-limited URL that downloads one file straight from the blob
// store, bypassing the API for the transfer itself.
type Link struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Service mints presigned download links. Access control matches a regular
// download: owners and grantees holding the download privilege qualify.
type Service struct {
	signer  urlSigner
	files   metadataSource
	access  authorizer
	bucket  string
	linkTTL time.Duration
}

// NewService constructs a link service. linkTTL caps the lifetime of every
// minted link.
func NewService(signer urlSigner, files metadataSource, access authorizer, bucket string, linkTTL time.Duration) *Service {
	return &Service{
		signer:  signer,
		files:   files,
		access:  access,
		bucket:  bucket,
		linkTTL: linkTTL,
	}
}

// DownloadLink returns a presigned URL for the file. A zero or oversized ttl
// falls back to the configured lifetime.
func (s *Service) DownloadLink(ctx context.Context, actorID, fileID uuid.UUID, ttl time.Duration) (Link, error) {
	if err := s.access.Authorize(ctx, actorID, fileID, share.PrivilegeDownload); err != nil {
		return Link{}, err
	}

	meta, err := s.files.Get(ctx, fileID)
	if err != nil {
		return Link{}, err
	}

	if ttl <= 0 || ttl > s.linkTTL {
		ttl = s.linkTTL
	}

	params := make(url.Values)
	params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", meta.Name))

	signed, err := s.signer.PresignedGetObject(ctx, s.bucket, meta.ObjectName(), ttl, params)
	if err != nil {
		return Link{}, fmt.Errorf("sign download link: %w", err)
	}

	return Link{URL: signed.String(), ExpiresAt: time.Now().Add(ttl)}, nil
}
