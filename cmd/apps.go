package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/usageflow/screensync/internal/utils"
	"github.com/usageflow/screensync/pkg/screentime"
)

// appsCmd represents the apps command
var appsCmd = &cobra.Command{
	Use:   "apps",
	Short: "List apps found in the Screen Time database",
	Run: func(cmd *cobra.Command, args []string) {
		uncategorizedOnly, _ := cmd.Flags().GetBool("uncategorized")

		reader, err := newReader(cmd)
		if err != nil {
			utils.Log.Fatal(err)
		}
		mapper, err := loadMapper(cmd)
		if err != nil {
			utils.Log.Fatal(err)
		}

		bundles, err := reader.ListApps(context.Background())
		if err != nil {
			utils.Log.Fatal(err)
		}
		shown := 0
		for _, bundle := range bundles {
			name := screentime.DisplayName(bundle)
			cat, matched := mapper.Categorize(name, bundle)
			if uncategorizedOnly && matched {
				continue
			}
			fmt.Printf("%s\t%s\t%s\n", name, bundle, cat)
			shown++
		}
		if uncategorizedOnly && shown == 0 {
			fmt.Println("Every app has a category.")
		}
	},
}

func init() {
	rootCmd.AddCommand(appsCmd)
	appsCmd.Flags().BoolP("uncategorized", "u", false, "Only show apps with no category mapping")
}
