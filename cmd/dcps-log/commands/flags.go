package commands

import (
	"fmt"

	"github.com/dcps-reader/dcps-go/pkg/ident"
	"github.com/dcps-reader/dcps-go/pkg/log"
)

// ParseCategoryFlag parses a category name from a command-line flag.
func ParseCategoryFlag(s string) (log.Category, error) {
	return log.ParseCategory(s)
}

// parseGUID parses a reader or writer GUID from a command-line flag.
func parseGUID(s string) (ident.GUID, error) {
	id, err := ident.Parse(s)
	if err != nil {
		return ident.Unknown, fmt.Errorf("invalid GUID %q: %w", s, err)
	}
	return id, nil
}
