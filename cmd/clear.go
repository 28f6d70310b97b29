package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/usageflow/screensync/internal/utils"
)

// clearCmd represents the clear command
var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Archive every row in the Notion database",
	Long: `Archives every page in the database, rows created by hand included. Pages
stay recoverable from the Notion trash, but this is still destructive, so
it asks for confirmation unless --force is given.`,
	Run: func(cmd *cobra.Command, args []string) {
		force, _ := cmd.Flags().GetBool("force")

		client, err := notionClient()
		if err != nil {
			utils.Log.Fatal(err)
		}
		if !force {
			fmt.Print("Archive ALL rows, manual ones included? [y/N] ")
			answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
			if strings.ToLower(strings.TrimSpace(answer)) != "y" {
				fmt.Println("Aborted.")
				return
			}
		}
		n, err := client.ArchiveAll(context.Background())
		if err != nil {
			utils.Log.Fatalf("archived %d pages before failing: %v", n, err)
		}
		fmt.Printf("Archived %d pages\n", n)
	},
}

func init() {
	rootCmd.AddCommand(clearCmd)
	clearCmd.Flags().BoolP("force", "f", false, "Skip the confirmation prompt")
}
