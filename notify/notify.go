// Package notify sends a desktop notification when a run completes.
// Notification failure is never fatal; runs typically happen unattended
// and the log already carries the outcome.
package notify

import (
	"fmt"

	"github.com/gen2brain/beeep"
	"github.com/otzaria/acronymizer/batch"
	"github.com/rs/zerolog"
)

// RunCompleted sends a desktop notification summarizing a finished pass.
// Errors are logged at warn level and swallowed.
func RunCompleted(logger zerolog.Logger, pass string, stats *batch.RunStats) {
	message := fmt.Sprintf(
		"%s: %d processed, %d inserted, %d updated, %d skipped, %d failed",
		pass, stats.Processed, stats.Inserted, stats.Updated, stats.Skipped, stats.Failed,
	)

	if err := beeep.Notify("Acronymizer", message, ""); err != nil {
		logger.Warn().Err(err).Msg("Failed to send desktop notification")
		return
	}
	logger.Debug().Str("pass", pass).Msg("Desktop notification sent")
}
