package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/usageflow/screensync/internal/utils"
	"github.com/usageflow/screensync/pkg/reconcile"
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile weekly usage summaries into Notion",
	Long: `Reads Screen Time events for the given date range, rebuilds sessions and
weekly summaries, then creates or updates the matching Notion rows. Rows
without an App ID were created by hand and are never written to.`,
	Run: func(cmd *cobra.Command, args []string) {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		macOnly, _ := cmd.Flags().GetBool("mac-only")
		setupSchema, _ := cmd.Flags().GetBool("setup-schema")

		rng, err := parseRange(cmd)
		if err != nil {
			utils.Log.Fatal(err)
		}
		reader, err := newReader(cmd)
		if err != nil {
			utils.Log.Fatal(err)
		}
		mapper, err := loadMapper(cmd)
		if err != nil {
			utils.Log.Fatal(err)
		}
		client, err := notionClient()
		if err != nil {
			utils.Log.Fatal(err)
		}

		ctx := context.Background()
		if err := client.Verify(ctx); err != nil {
			utils.Log.Fatal(err)
		}

		deps := reconcile.Deps{
			Source: reader,
			Store:  client,
			Mapper: mapper,
			Config: pipelineConfig(),
		}
		opts := reconcile.Options{
			DryRun:      dryRun,
			MacOnly:     macOnly,
			SetupSchema: setupSchema,
		}
		report, err := reconcile.Run(ctx, deps, rng, opts)
		if err != nil {
			utils.Log.Fatal(err)
		}
		printReport(report)
	},
}

func printReport(report *reconcile.RunReport) {
	verb := ""
	if report.DryRun {
		verb = " (dry run, nothing written)"
	}
	fmt.Printf("Events: %d (%d malformed skipped)\n", report.Events, report.MalformedEvents)
	fmt.Printf("Sessions: %d app/website, %d sleep\n", report.Sessions, report.SleepSessions)
	fmt.Printf("Weekly rows: %d\n", report.Rows)
	fmt.Printf("Created: %d, updated: %d, unchanged: %d, manual protected: %d%s\n",
		report.Created, report.Updated, report.SkippedUnchanged, report.SkippedManual, verb)
	if len(report.Uncategorized) > 0 {
		fmt.Printf("Uncategorized apps (%d): run 'screensync apps --uncategorized' to review\n", len(report.Uncategorized))
	}
	for _, re := range report.RowErrors {
		fmt.Printf("Failed %s for %s: %v\n", re.Op, re.Key, re.Err)
	}
	if report.Partial {
		fmt.Println("Run was partial: the store denied a write and remaining operations were skipped. Re-running is safe.")
	}
}

func init() {
	rootCmd.AddCommand(syncCmd)
	addRangeFlags(syncCmd)
	syncCmd.Flags().BoolP("dry-run", "n", false, "Compute decisions without writing to Notion")
	syncCmd.Flags().BoolP("mac-only", "m", false, "Only include usage recorded on this Mac")
	syncCmd.Flags().BoolP("setup-schema", "s", false, "Add any missing Notion database columns before syncing")
}
