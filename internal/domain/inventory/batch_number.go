package inventory

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateBatchNumber produces a human-readable audit identifier for a new
// batch: a date-derived prefix plus a random suffix. The random suffix keeps
// numbers unique under concurrent creation; the database unique index is the
// final guarantee, callers regenerate on a collision.
func GenerateBatchNumber(now time.Time) string {
	suffix := strings.ToUpper(uuid.NewString()[:8])
	return fmt.Sprintf("B%s-%s", now.Format("20060102"), suffix)
}
