package cli

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/staticfold-labs/notemill-cli/internal/connectors/notion"
)

var (
	checkToken      string
	checkDatabaseID string

	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the Notion connection and show resolved settings",
	Long: `Check resolves the active settings and exercises the Notion API with
lightweight calls: token validity, database access and query
permission. Nothing is written.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := resolveSettings(checkToken, checkDatabaseID, "", "")
		if err != nil {
			return err
		}

		cmd.Println(dimStyle.Render("database:    ") + cfg.DatabaseID)
		cmd.Println(dimStyle.Render("content dir: ") + cfg.ContentDir)
		cmd.Println(dimStyle.Render("static dir:  ") + cfg.StaticDir)
		cmd.Println(dimStyle.Render("max width:   ") + strconv.Itoa(cfg.MaxWidth))

		source := notion.New(notion.Config{
			Token:            cfg.Token,
			DatabaseID:       cfg.DatabaseID,
			DataSourcePolicy: notion.DataSourcePolicy(cfg.DataSourcePolicy),
		})
		if err := source.Validate(cmd.Context()); err != nil {
			cmd.Println(failStyle.Render("✗ connection failed"))
			return err
		}
		cmd.Println(okStyle.Render("✓ token, database and query access verified"))
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkToken, "token", "", "Notion integration token")
	checkCmd.Flags().StringVar(&checkDatabaseID, "database-id", "", "Notion database ID")
	rootCmd.AddCommand(checkCmd)
}
