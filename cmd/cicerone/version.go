package main

import (
	"fmt"

	"github.com/spf13/cobra"

	cicerone "github.com/cicerone-chat/cicerone"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of cicerone",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("cicerone version %s\n", cicerone.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
