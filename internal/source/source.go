// Package source fetches and parses the two static inputs of the dashboard: the
// per-indicator series table and the per-indicator settings table.
package source

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Fetcher returns the raw bytes of one source.
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
	Name() string
}

const dbPrefix = "db:"

// Open resolves a locator into a Fetcher. Locators are http(s) URLs, "db:<name>"
// documents stored in Postgres, or file paths.
func Open(locator string, docs DocumentReader, timeout time.Duration) (Fetcher, error) {
	switch {
	case locator == "":
		return nil, fmt.Errorf("empty source locator")
	case strings.HasPrefix(locator, "http://"), strings.HasPrefix(locator, "https://"):
		return NewHTTPSource(locator, timeout), nil
	case strings.HasPrefix(locator, dbPrefix):
		name := strings.TrimPrefix(locator, dbPrefix)
		if name == "" {
			return nil, fmt.Errorf("db locator %q has no document name", locator)
		}
		if docs == nil {
			return nil, fmt.Errorf("db locator %q requires DATABASE_URL", locator)
		}
		return NewDBSource(docs, name), nil
	default:
		return NewFileSource(locator), nil
	}
}

// IsDB reports whether the locator points at a Postgres-stored document.
func IsDB(locator string) bool {
	return strings.HasPrefix(locator, dbPrefix)
}
