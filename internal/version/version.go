// Package version provides build-time version information.
//
// Set at link time:
//
//	go build -ldflags "-X github.com/rickgao/coin-crawler/internal/version.Version=0.3.0 \
//	                   -X github.com/rickgao/coin-crawler/internal/version.Commit=$(git rev-parse --short HEAD)" \
//	         ./cmd/crawler
package version

import "log/slog"

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// String returns a formatted version string.
func String() string {
	return Version + " (" + Commit + ") built " + BuildTime
}

// Attrs returns the build info as log attributes.
func Attrs() []any {
	return []any{
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("built", BuildTime),
	}
}
