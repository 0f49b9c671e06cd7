package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/spf13/cobra"

	"github.com/staticfold-labs/notemill-cli/internal/core/ports/driving"
)

// progressInterval is how often the bar repaints while a pass runs.
const progressInterval = 200 * time.Millisecond

type syncResult struct {
	report *driving.SyncReport
	err    error
}

// runSyncWithProgress runs the pass in a goroutine and repaints a
// progress bar from Status snapshots until it finishes.
func runSyncWithProgress(cmd *cobra.Command, orch driving.SyncOrchestrator, opts driving.SyncOptions) (*driving.SyncReport, error) {
	bar := progress.New(progress.WithDefaultGradient())

	done := make(chan syncResult, 1)
	go func() {
		report, err := orch.Sync(cmd.Context(), opts)
		done <- syncResult{report, err}
	}()

	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	for {
		select {
		case result := <-done:
			clearProgressLine(cmd)
			return result.report, result.err
		case <-ticker.C:
			paintProgress(cmd, bar, orch.Status(cmd.Context()))
		}
	}
}

func paintProgress(cmd *cobra.Command, bar progress.Model, status *driving.SyncStatus) {
	if status == nil || !status.Running || status.Total == 0 {
		return
	}
	processed := status.Converted + status.Skipped + status.Failed
	frac := float64(processed) / float64(status.Total)
	title := status.Current
	if len(title) > 40 {
		title = title[:37] + "..."
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "\r%s %d/%d %s",
		bar.ViewAs(frac), processed, status.Total, title)
}

func clearProgressLine(cmd *cobra.Command) {
	fmt.Fprintf(cmd.ErrOrStderr(), "\r%s\r", strings.Repeat(" ", 100))
}
