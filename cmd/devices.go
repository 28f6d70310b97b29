package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/usageflow/screensync/internal/utils"
)

// devicesCmd represents the devices command
var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List devices with Screen Time data on this Mac",
	Run: func(cmd *cobra.Command, args []string) {
		reader, err := newReader(cmd)
		if err != nil {
			utils.Log.Fatal(err)
		}
		devices, err := reader.ListDevices(context.Background())
		if err != nil {
			utils.Log.Fatal(err)
		}
		for _, d := range devices {
			fmt.Printf("%s\t%s\t%d events\n", d.Label, d.ID, d.Events)
		}
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}
