package graphcache

import "fmt"

// CacheFormatError reports an unreadable or wrong-version cache file (§7).
type CacheFormatError struct {
	Path    string
	Message string
}

func (e *CacheFormatError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("cache format error: %s", e.Message)
	}
	return fmt.Sprintf("cache format error in %s: %s", e.Path, e.Message)
}
