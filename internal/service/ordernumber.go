package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// newOrderNumber builds a human-legible, collision-resistant order number:
// a UTC timestamp for legibility plus a random suffix for uniqueness. The
// unique index on orders.order_number is the real guarantee; a duplicate
// insert is retried with a fresh number.
func newOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", now.UTC().Format("20060102150405"), suffix)
}
