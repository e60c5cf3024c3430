package sqlite

import (
	"fmt"
	"strings"
	"time"

	"github.com/fwojciec/agendex"
)

// parseRFC3339 parses an RFC3339 formatted timestamp string.
// Returns an error if parsing fails with a descriptive message including the field name.
func parseRFC3339(value, fieldName string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s: %w", fieldName, err)
	}
	return t, nil
}

// appendOwner appends the owner predicate to a query builder. Exactly one
// of the owner's IDs is set, so matching both columns keeps organizer and
// location rows apart.
func appendOwner(query *strings.Builder, args *[]any, owner agendex.OwnerRef) {
	query.WriteString(" AND organizer_id = ? AND location_id = ?")
	*args = append(*args, owner.OrganizerID, owner.LocationID)
}

// appendPagination appends LIMIT and OFFSET clauses to a query builder if values are > 0.
func appendPagination(query *strings.Builder, args *[]any, limit, offset int) {
	if limit > 0 {
		query.WriteString(" LIMIT ?")
		*args = append(*args, limit)
	}
	if offset > 0 {
		query.WriteString(" OFFSET ?")
		*args = append(*args, offset)
	}
}
