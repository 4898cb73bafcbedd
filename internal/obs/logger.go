package obs

import (
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// NewLogger builds the root logger.  Components derive named children
// from it (logger.Named("reconciler")) so every line carries its origin.
func NewLogger(level, format string) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:       "seatsvc",
		Level:      hclog.LevelFromString(level),
		JSONFormat: strings.EqualFold(format, "json"),
		Output:     os.Stdout,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
}
