package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Compile a scenario file and report the result",
	Long: `Compiles a scenario file (graph JSON or table CSV) and prints the node
count plus every non-fatal compile issue. Exits non-zero on a fatal error.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
		format, _ := cmd.Flags().GetString("format")
		eng := buildEngine(cfg, buildLogger(cfg))

		res, err := importFile(cmd.Context(), eng, args[0], format)
		if err != nil {
			fmt.Printf("Import failed: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Compiled %s: %d nodes (definition %s)\n", args[0], res.NodeCount, res.DefinitionID)
		if len(res.Issues) == 0 {
			fmt.Println("No issues.")
			return
		}
		fmt.Printf("%d issue(s):\n", len(res.Issues))
		for _, issue := range res.Issues {
			fmt.Printf("  - %s\n", issue.String())
		}
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().String("format", "", "Source format: graph or table (default: by extension)")
}
