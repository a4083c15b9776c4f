package pathutil

import (
	"errors"
	"strconv"
	"strings"
)

// ErrInvalidID is returned when the ID in the URL path is invalid.
var ErrInvalidID = errors.New("invalid id")

// ParseID parses a positive content item id.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}

// ExtractID removes prefix from path and parses the rest as an id.
//
//	id, err := ExtractID("/feed/items/123", "/feed/items/")
//	// Returns: 123, nil
func ExtractID(path, prefix string) (int64, error) {
	return ParseID(strings.TrimPrefix(path, prefix))
}
