package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/usageflow/screensync/internal/utils"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the configured Notion database",
	Run: func(cmd *cobra.Command, args []string) {
		client, err := notionClient()
		if err != nil {
			utils.Log.Fatal(err)
		}
		info, err := client.Info(context.Background())
		if err != nil {
			utils.Log.Fatal(err)
		}
		fmt.Printf("Title: %s\n", info.Title)
		fmt.Printf("URL: %s\n", info.URL)
		fmt.Printf("Created: %s\n", info.CreatedTime)
		fmt.Printf("Last edited: %s\n", info.LastEditedTime)
		fmt.Printf("Columns: %s\n", strings.Join(info.Properties, ", "))
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
