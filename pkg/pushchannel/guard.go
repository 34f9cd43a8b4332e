package pushchannel

import (
	"context"
	"strings"
)

// PageGuard reports whether the current page context may hold a push
// connection. It is consulted by Start and before every reconnect.
type PageGuard func(ctx context.Context) bool

// DefaultExcludedPaths are pages where an anonymous user is expected.
var DefaultExcludedPaths = []string{"/login/", "/register/", "/password/reset/", "/admin/"}

// ExcludePaths returns a guard that rejects any current path containing one
// of excluded. With no excluded paths DefaultExcludedPaths is used.
func ExcludePaths(currentPath func() string, excluded ...string) PageGuard {
	if len(excluded) == 0 {
		excluded = DefaultExcludedPaths
	}
	return func(context.Context) bool {
		if currentPath == nil {
			return true
		}
		path := currentPath()
		for _, p := range excluded {
			if p != "" && strings.Contains(path, p) {
				return false
			}
		}
		return true
	}
}
