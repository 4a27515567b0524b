package commands

import (
	"strconv"
	"strings"

	"catalogsync/internal/application"
)

// ParseIDs parses a comma-separated id list such as "1,11,21". Blank input
// yields an empty list.
func ParseIDs(field, s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, &application.ValidationError{Field: field, Message: "not a number: " + strings.TrimSpace(p)}
		}
		ids = append(ids, id)
	}
	return ids, nil
}
