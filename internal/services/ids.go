// internal/services/ids.go
package services

import (
	"fmt"
	"time"
)

// businessID builds the dealership's human-facing identifier format:
// two-digit month, two-digit day, four-digit year, then a sequence
// number with no separators. Generated VINs, sale ids, and service ids
// all share this shape, differing only in which row's sequence they
// borrow.
func businessID(t time.Time, seq uint) string {
	return fmt.Sprintf("%02d%02d%d%d", int(t.Month()), t.Day(), t.Year(), seq)
}
