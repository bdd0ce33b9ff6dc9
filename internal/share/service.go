package share

import (
	"context"
	"errors"
	"fmt"

	"filevault/internal/auth"
	"filevault/internal/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// grantStore abstracts the sharing ledger persistence.
type grantStore interface {
	OwnerOf(ctx context.Context, fileID uuid.UUID) (uuid.UUID, error)
	GrantAll(ctx context.Context, granteeID uuid.UUID, fileIDs []uuid.UUID, privileges []Privilege) error
	ListSharedWith(ctx context.Context, userID uuid.UUID) ([]SharedFile, error)
}

// userDirectory resolves share recipients by email.
type userDirectory interface {
	FindUserIDByEmail(ctx context.Context, email string) (uuid.UUID, error)
}

// Service orchestrates share requests.
type Service struct {
	repo  grantStore
	users userDirectory
	log   *zap.Logger
}

// NewService constructs a sharing service.
func NewService(repo grantStore, users userDirectory, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, users: users, log: log}
}

// Share grants the named privileges on every file to the user behind
// granteeEmail. Validation runs for the whole batch before the grants are
// applied in one transaction; a failing file aborts the request with no grant
// written.
func (s *Service) Share(ctx context.Context, granterID uuid.UUID, granteeEmail string, fileIDs []uuid.UUID, privilegeNames []string) error {
	if len(fileIDs) == 0 {
		return fmt.Errorf("%w: no files given", ErrFileNotFound)
	}

	privileges, err := ParsePrivileges(privilegeNames)
	if err != nil {
		return err
	}
	if len(privileges) == 0 {
		return ErrUnknownPrivilege
	}

	granteeID, err := s.users.FindUserIDByEmail(ctx, granteeEmail)
	if err != nil {
		return translateDirectoryError(err)
	}

	if granteeID == granterID {
		s.log.Info("share rejected: grantee is granter", zap.String("granter_id", granterID.String()))
		return ErrSelfShare
	}

	for _, fileID := range fileIDs {
		ownerID, err := s.repo.OwnerOf(ctx, fileID)
		if err != nil {
			return err
		}
		if ownerID != granterID {
			metrics.AccessDenials.Inc()
			return ErrNotOwner
		}
		if ownerID == granteeID {
			return ErrSelfShare
		}
	}

	if err := s.repo.GrantAll(ctx, granteeID, fileIDs, privileges); err != nil {
		return err
	}

	metrics.SharesGranted.Inc()
	s.log.Info("files shared",
		zap.String("granter_id", granterID.String()),
		zap.String("grantee_id", granteeID.String()),
		zap.Int("file_count", len(fileIDs)),
		zap.Int("privilege_count", len(privileges)),
	)
	return nil
}

// ListSharedWith returns the files a user can see through grants.
func (s *Service) ListSharedWith(ctx context.Context, userID uuid.UUID) ([]SharedFile, error) {
	return s.repo.ListSharedWith(ctx, userID)
}

func translateDirectoryError(err error) error {
	if errors.Is(err, auth.ErrUserNotFound) {
		return ErrUnknownRecipient
	}
	return err
}
