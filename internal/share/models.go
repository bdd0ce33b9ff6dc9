package share

import (
	"time"

	"github.com/google/uuid"
)

// SharedFile is a file visible to a user through a grant, joined with the
// owner's display name.
type SharedFile struct {
	FileID     uuid.UUID   `json:"id"`
	Name       string      `json:"name"`
	SizeBytes  int64       `json:"size_bytes"`
	Extension  string      `json:"extension"`
	OwnerID    uuid.UUID   `json:"owner_id"`
	OwnerName  string      `json:"owner_name"`
	Privileges []Privilege `json:"privileges"`
	UpdatedAt  time.Time   `json:"updated_at"`
}
