package file

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Metadata is the registry row for a stored file. The ID doubles as the
// opaque storage identifier; it is generated at upload time and never reused.
type Metadata struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Name      string    `json:"name"`
	SizeBytes int64     `json:"size_bytes"`
	Extension string    `json:"extension"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ObjectName returns the blob path for the file, namespaced per owner.
func (m Metadata) ObjectName() string {
	return fmt.Sprintf("%s/%s", m.OwnerID, m.ID)
}
