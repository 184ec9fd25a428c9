package sales

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateReceiptNumber builds a receipt identifier of the form
// RCP-20060102-8F3A1B2C. Receipt numbers are assigned only when a sale
// commits, so a failed attempt never burns one.
func GenerateReceiptNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return "RCP-" + now.Format("20060102") + "-" + suffix
}
