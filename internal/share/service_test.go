package share

import (
	"context"
	"errors"
	"testing"

	"filevault/internal/auth"

	"github.com/google/uuid"
)

func TestShareGrantsPrivileges(t *testing.T) {
	ledger := newMemoryLedger()
	granter := uuid.New()
	grantee := uuid.New()
	fileID := uuid.New()
	ledger.owners[fileID] = granter
	directory := memoryDirectory{"friend@example.com": grantee}

	service := NewService(ledger, directory, nil)

	err := service.Share(context.Background(), granter, "friend@example.com", []uuid.UUID{fileID}, []string{"download", "rename"})
	if err != nil {
		t.Fatalf("Share returned error: %v", err)
	}

	privileges, err := ledger.Privileges(context.Background(), grantee, fileID)
	if err != nil {
		t.Fatalf("Privileges returned error: %v", err)
	}
	if len(privileges) != 2 || privileges[0] != PrivilegeDownload || privileges[1] != PrivilegeRename {
		t.Fatalf("unexpected privileges: %v", privileges)
	}
}

func TestShareIsIdempotent(t *testing.T) {
	ledger := newMemoryLedger()
	granter := uuid.New()
	grantee := uuid.New()
	fileID := uuid.New()
	ledger.owners[fileID] = granter
	directory := memoryDirectory{"friend@example.com": grantee}

	service := NewService(ledger, directory, nil)

	for i := 0; i < 2; i++ {
		if err := service.Share(context.Background(), granter, "friend@example.com", []uuid.UUID{fileID}, []string{"download"}); err != nil {
			t.Fatalf("Share attempt %d returned error: %v", i+1, err)
		}
	}

	privileges, err := ledger.Privileges(context.Background(), grantee, fileID)
	if err != nil {
		t.Fatalf("Privileges returned error: %v", err)
	}
	if len(privileges) != 1 {
		t.Fatalf("expected a single download privilege, got %v", privileges)
	}
}

func TestShareRejectsUnknownPrivilege(t *testing.T) {
	ledger := newMemoryLedger()
	granter := uuid.New()
	fileID := uuid.New()
	ledger.owners[fileID] = granter
	directory := memoryDirectory{"friend@example.com": uuid.New()}

	service := NewService(ledger, directory, nil)

	err := service.Share(context.Background(), granter, "friend@example.com", []uuid.UUID{fileID}, []string{"download", "fly"})
	if !errors.Is(err, ErrUnknownPrivilege) {
		t.Fatalf("expected ErrUnknownPrivilege, got %v", err)
	}
	if ledger.grantCalls != 0 {
		t.Fatalf("expected no grants written, got %d calls", ledger.grantCalls)
	}
}

func TestShareRejectsUnknownRecipient(t *testing.T) {
	ledger := newMemoryLedger()
	granter := uuid.New()
	fileID := uuid.New()
	ledger.owners[fileID] = granter

	service := NewService(ledger, memoryDirectory{}, nil)

	err := service.Share(context.Background(), granter, "nobody@example.com", []uuid.UUID{fileID}, []string{"download"})
	if !errors.Is(err, ErrUnknownRecipient) {
		t.Fatalf("expected ErrUnknownRecipient, got %v", err)
	}
}

func TestShareRejectsSelfShare(t *testing.T) {
	ledger := newMemoryLedger()
	granter := uuid.New()
	fileID := uuid.New()
	ledger.owners[fileID] = granter
	directory := memoryDirectory{"me@example.com": granter}

	service := NewService(ledger, directory, nil)

	err := service.Share(context.Background(), granter, "me@example.com", []uuid.UUID{fileID}, []string{"download"})
	if !errors.Is(err, ErrSelfShare) {
		t.Fatalf("expected ErrSelfShare, got %v", err)
	}
}

func TestShareRejectsNonOwner(t *testing.T) {
	ledger := newMemoryLedger()
	owner := uuid.New()
	stranger := uuid.New()
	fileID := uuid.New()
	ledger.owners[fileID] = owner
	directory := memoryDirectory{"friend@example.com": uuid.New()}

	service := NewService(ledger, directory, nil)

	err := service.Share(context.Background(), stranger, "friend@example.com", []uuid.UUID{fileID}, []string{"download"})
	if !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if ledger.grantCalls != 0 {
		t.Fatalf("expected no grants written, got %d calls", ledger.grantCalls)
	}
}

func TestShareAbortsWholeBatchOnBadFile(t *testing.T) {
	ledger := newMemoryLedger()
	granter := uuid.New()
	owned := uuid.New()
	foreign := uuid.New()
	ledger.owners[owned] = granter
	ledger.owners[foreign] = uuid.New()
	directory := memoryDirectory{"friend@example.com": uuid.New()}

	service := NewService(ledger, directory, nil)

	err := service.Share(context.Background(), granter, "friend@example.com", []uuid.UUID{owned, foreign}, []string{"download"})
	if !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if ledger.grantCalls != 0 {
		t.Fatalf("expected no grants for the owned file either, got %d calls", ledger.grantCalls)
	}
}

func TestParsePrivilegesDeduplicates(t *testing.T) {
	privileges, err := ParsePrivileges([]string{"Download", " delete ", "download"})
	if err != nil {
		t.Fatalf("ParsePrivileges returned error: %v", err)
	}
	if len(privileges) != 2 || privileges[0] != PrivilegeDownload || privileges[1] != PrivilegeDelete {
		t.Fatalf("unexpected privileges: %v", privileges)
	}
}

// --- fakes ---

type memoryDirectory map[string]uuid.UUID

func (d memoryDirectory) FindUserIDByEmail(ctx context.Context, email string) (uuid.UUID, error) {
	id, ok := d[email]
	if !ok {
		return uuid.Nil, auth.ErrUserNotFound
	}
	return id, nil
}

type grantKey struct {
	granteeID uuid.UUID
	fileID    uuid.UUID
}

type memoryLedger struct {
	owners     map[uuid.UUID]uuid.UUID
	grants     map[grantKey][]Privilege
	grantCalls int
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{
		owners: make(map[uuid.UUID]uuid.UUID),
		grants: make(map[grantKey][]Privilege),
	}
}

func (m *memoryLedger) OwnerOf(ctx context.Context, fileID uuid.UUID) (uuid.UUID, error) {
	owner, ok := m.owners[fileID]
	if !ok {
		return uuid.Nil, ErrFileNotFound
	}
	return owner, nil
}

func (m *memoryLedger) GrantAll(ctx context.Context, granteeID uuid.UUID, fileIDs []uuid.UUID, privileges []Privilege) error {
	m.grantCalls++
	for _, fileID := range fileIDs {
		key := grantKey{granteeID: granteeID, fileID: fileID}
		for _, p := range privileges {
			if !containsPrivilege(m.grants[key], p) {
				m.grants[key] = append(m.grants[key], p)
			}
		}
	}
	return nil
}

func (m *memoryLedger) Privileges(ctx context.Context, granteeID, fileID uuid.UUID) ([]Privilege, error) {
	privileges, ok := m.grants[grantKey{granteeID: granteeID, fileID: fileID}]
	if !ok {
		return nil, ErrNoAccess
	}
	return privileges, nil
}

func (m *memoryLedger) ListSharedWith(ctx context.Context, userID uuid.UUID) ([]SharedFile, error) {
	return nil, nil
}

func containsPrivilege(privileges []Privilege, p Privilege) bool {
	for _, existing := range privileges {
		if existing == p {
			return true
		}
	}
	return false
}
