package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the poswatch CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("poswatch version %s\n", version)
		fmt.Println("A trading-position page monitor with multi-channel alerts")
		fmt.Println("https://github.com/rustyeddy/poswatch")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
