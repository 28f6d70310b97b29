package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/usageflow/screensync/internal/utils"
)

// categorizeCmd represents the categorize command
var categorizeCmd = &cobra.Command{
	Use:   "categorize <app> <category>",
	Short: "Map an app name or bundle pattern to a category",
	Long: `Adds a mapping to the categories config. The app argument may be a display
name for an exact match or a bundle pattern with * wildcards, e.g.
'com.apple.*'. Later syncs pick the mapping up automatically.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		app, cat := args[0], args[1]

		mapper, err := loadMapper(cmd)
		if err != nil {
			utils.Log.Fatal(err)
		}
		if err := mapper.AddMapping(app, cat); err != nil {
			utils.Log.Fatal(err)
		}
		fmt.Printf("Mapped %q to %s\n", app, cat)
	},
}

func init() {
	rootCmd.AddCommand(categorizeCmd)
}
