package file

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
)

// usageSource reports a user's consumed storage.
type usageSource interface {
	SumSizeByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error)
}

// QuotaLedger admits or rejects uploads against the per-user storage ceiling.
// Admission is a pure read; the check is best-effort with respect to
// concurrent uploads from the same user, which may transiently overshoot the
// limit.
type QuotaLedger struct {
	usage usageSource
	limit int64
}

// NewQuotaLedger constructs a quota ledger with the configured ceiling.
func NewQuotaLedger(usage usageSource, limit int64) *QuotaLedger {
	return &QuotaLedger{usage: usage, limit: limit}
}

// CheckAdmission returns a *QuotaExceededError when storing incomingBytes
// would push the owner past the ceiling, and nil when the upload may proceed.
func (q *QuotaLedger) CheckAdmission(ctx context.Context, ownerID uuid.UUID, incomingBytes int64) (*QuotaExceededError, error) {
	current, err := q.usage.SumSizeByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("compute storage usage: %w", err)
	}

	if current+incomingBytes > q.limit {
		return &QuotaExceededError{
			CurrentUsage:  current,
			IncomingBytes: incomingBytes,
			Limit:         q.limit,
		}, nil
	}
	return nil, nil
}

// FormatBytes renders a byte count using binary units for user-facing
// messages.
func FormatBytes(bytes int64) string {
	if bytes <= 0 {
		return "0 B"
	}

	const unit = 1024
	sizes := []string{"B", "KiB", "MiB", "GiB", "TiB", "PiB", "EiB"}

	exp := int(math.Floor(math.Log(float64(bytes)) / math.Log(unit)))
	if exp >= len(sizes) {
		exp = len(sizes) - 1
	}
	value := float64(bytes) / math.Pow(unit, float64(exp))
	if exp == 0 {
		return fmt.Sprintf("%d B", bytes)
	}
	return fmt.Sprintf("%.2f %s", value, sizes[exp])
}
