package share

import (
	"context"

	"filevault/internal/metrics"

	"github.com/google/uuid"
)

// accessStore is the slice of the ledger the evaluator reads.
type accessStore interface {
	OwnerOf(ctx context.Context, fileID uuid.UUID) (uuid.UUID, error)
	Privileges(ctx context.Context, granteeID, fileID uuid.UUID) ([]Privilege, error)
}

// Evaluator decides whether an actor may perform an operation on a file by
// composing registry ownership with ledger grants. Owners always pass;
// everyone else needs a grant carrying the requested privilege.
type Evaluator struct {
	store accessStore
}

// NewEvaluator constructs an access evaluator.
func NewEvaluator(store accessStore) *Evaluator {
	return &Evaluator{store: store}
}

// Authorize returns nil when actorID may perform op on fileID. Failure modes:
// ErrFileNotFound, ErrNoAccess (no grant), ErrInsufficientPrivilege (grant
// without op).
func (e *Evaluator) Authorize(ctx context.Context, actorID, fileID uuid.UUID, op Privilege) error {
	ownerID, err := e.store.OwnerOf(ctx, fileID)
	if err != nil {
		return err
	}
	if ownerID == actorID {
		return nil
	}

	privileges, err := e.store.Privileges(ctx, actorID, fileID)
	if err != nil {
		if err == ErrNoAccess {
			metrics.AccessDenials.Inc()
		}
		return err
	}

	for _, p := range privileges {
		if p == op {
			return nil
		}
	}
	metrics.AccessDenials.Inc()
	return ErrInsufficientPrivilege
}
