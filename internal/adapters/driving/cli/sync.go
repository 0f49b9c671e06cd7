package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/staticfold-labs/notemill-cli/internal/adapters/driven/media"
	"github.com/staticfold-labs/notemill-cli/internal/adapters/driven/storage/cachefile"
	"github.com/staticfold-labs/notemill-cli/internal/connectors/notion"
	"github.com/staticfold-labs/notemill-cli/internal/core/ports/driving"
	"github.com/staticfold-labs/notemill-cli/internal/core/services"
	"github.com/staticfold-labs/notemill-cli/internal/logger"
	"github.com/staticfold-labs/notemill-cli/internal/renderers/hugo"
)

var (
	syncToken      string
	syncDatabaseID string
	syncContentDir string
	syncStaticDir  string
	syncClean      bool
	syncForce      bool
	syncDryRun     bool
)

// syncOrchestrator is resolved lazily so tests can inject a fake.
var syncOrchestrator driving.SyncOrchestrator

// syncCleaner wipes generated content before a clean run. Tests inject
// it alongside syncOrchestrator; production wires the renderer.
var syncCleaner interface{ CleanAll() error }

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Mirror published posts into the Hugo content tree",
	Long: `Sync queries the Notion database for published posts, converts new or
edited ones to Markdown, downloads their media, and records the results
in the cache so unchanged posts are skipped next time.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		orch := syncOrchestrator
		cleaner := syncCleaner
		if orch == nil {
			built, builtCleaner, err := buildSyncStack(cmd)
			if err != nil {
				return err
			}
			orch = built
			cleaner = builtCleaner
		}

		if syncClean && !syncDryRun {
			if cleaner == nil {
				return fmt.Errorf("clean requested but no renderer available")
			}
			if err := cleaner.CleanAll(); err != nil {
				return fmt.Errorf("cleaning content tree: %w", err)
			}
			logger.Info("cleaned generated posts")
		}

		report, err := runSyncWithProgress(cmd, orch, driving.SyncOptions{
			Force:  syncForce,
			DryRun: syncDryRun,
		})
		if err != nil {
			return err
		}

		cmd.Printf("Synced %d posts: %d converted, %d skipped, %d failed\n",
			report.Total, report.Converted, report.Skipped, len(report.Failures))
		for _, f := range report.Failures {
			cmd.Printf("  failed: %s (%s): %v\n", f.Title, f.PostID, f.Err)
		}
		if len(report.Failures) > 0 {
			return fmt.Errorf("%d of %d posts failed", len(report.Failures), report.Total)
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().StringVar(&syncToken, "token", "", "Notion integration token")
	syncCmd.Flags().StringVar(&syncDatabaseID, "database-id", "", "Notion database ID")
	syncCmd.Flags().StringVar(&syncContentDir, "content-dir", "", "Hugo content directory (default ./content)")
	syncCmd.Flags().StringVar(&syncStaticDir, "static-dir", "", "Hugo static directory (default ./static)")
	syncCmd.Flags().BoolVar(&syncClean, "clean", false, "Remove all generated posts before syncing")
	syncCmd.Flags().BoolVar(&syncForce, "force", false, "Reconvert every post, ignoring the cache")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Report what would change without writing anything")
	rootCmd.AddCommand(syncCmd)
}

// buildSyncStack wires the production adapters from resolved settings.
func buildSyncStack(cmd *cobra.Command) (driving.SyncOrchestrator, interface{ CleanAll() error }, error) {
	cfg, err := resolveSettings(syncToken, syncDatabaseID, syncContentDir, syncStaticDir)
	if err != nil {
		return nil, nil, err
	}

	source := notion.New(notion.Config{
		Token:            cfg.Token,
		DatabaseID:       cfg.DatabaseID,
		DataSourcePolicy: notion.DataSourcePolicy(cfg.DataSourcePolicy),
	})
	if err := source.Validate(cmd.Context()); err != nil {
		return nil, nil, err
	}

	cache := cachefile.NewStore(cachefile.DefaultFilename)
	cache.Load()

	fetcher := media.NewFetcher(cfg.StaticDir, cache, media.FetcherOptions{
		MaxWidth: cfg.MaxWidth,
	})
	renderer := hugo.New(cfg.ContentDir, fetcher)

	return services.NewSyncOrchestrator(source, cache, renderer), renderer, nil
}
