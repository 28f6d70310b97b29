package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/usageflow/screensync/internal/utils"
	"github.com/usageflow/screensync/pkg/category"
	"github.com/usageflow/screensync/pkg/export"
	"github.com/usageflow/screensync/pkg/usage"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write weekly usage summaries to a local CSV file",
	Long: `Runs the same pipeline as sync but writes the computed weekly rows to a CSV
file instead of Notion. Useful for checking what a sync would push.`,
	Run: func(cmd *cobra.Command, args []string) {
		out, _ := cmd.Flags().GetString("out")
		categoriesOut, _ := cmd.Flags().GetString("categories-out")

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

		cfg := pipelineConfig()
		events, err := reader.ReadEvents(context.Background(), rng.From, rng.To)
		if err != nil {
			utils.Log.Fatal(err)
		}
		kept, malformed := usage.Clip(events, rng.From, rng.To)
		if malformed > 0 {
			utils.Log.Warnf("skipped %d malformed events", malformed)
		}
		sessions := usage.BuildSessions(kept, cfg)
		sessions = append(sessions, usage.DetectSleep(sessions, cfg)...)
		sessions = usage.Classify(sessions, cfg)
		sessions, _ = mapper.Apply(sessions)
		rows := usage.Aggregate(sessions, time.Now(), cfg.Location)

		f, err := os.Create(out)
		if err != nil {
			utils.Log.Fatal(err)
		}
		defer f.Close()
		if err := export.WriteSummary(f, rows); err != nil {
			utils.Log.Fatal(err)
		}
		fmt.Printf("Wrote %d weekly rows to %s\n", len(rows), out)

		if categoriesOut != "" {
			cf, err := os.Create(categoriesOut)
			if err != nil {
				utils.Log.Fatal(err)
			}
			defer cf.Close()
			summaries := category.Summarize(sessions)
			if err := export.WriteCategories(cf, summaries); err != nil {
				utils.Log.Fatal(err)
			}
			fmt.Printf("Wrote %d category totals to %s\n", len(summaries), categoriesOut)
		}
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	addRangeFlags(exportCmd)
	exportCmd.Flags().StringP("out", "o", "screensync-weekly.csv", "Output CSV path")
	exportCmd.Flags().StringP("categories-out", "", "", "Also write per-category totals to this CSV path")
}
