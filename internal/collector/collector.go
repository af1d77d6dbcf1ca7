package collector

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rickgao/coin-crawler/internal/api"
	"github.com/rickgao/coin-crawler/internal/model"
)

// Sink receives ranked entries as they are produced.
type Sink interface {
	// Reset discards output from a previous run.
	Reset() error
	// Append stores one entry.
	Append(entry model.RankedEntry) error
}

// logAPIError logs the status and body of an upstream error, if err is one.
func logAPIError(logger *slog.Logger, err error) {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		logger.Error(fmt.Sprintf("Error [code %d]", apiErr.StatusCode),
			"body", strings.TrimSpace(string(apiErr.Body)),
		)
	}
}
