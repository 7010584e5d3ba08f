package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Re-export a scenario file in another authoring format",
	Long: `Compiles a scenario file and writes it back to stdout in the requested
authoring format: the spreadsheet CSV form or the editor JSON form.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
		to, _ := cmd.Flags().GetString("to")
		format, _ := cmd.Flags().GetString("format")
		eng := buildEngine(cfg, buildLogger(cfg))

		res, err := importFile(cmd.Context(), eng, args[0], format)
		if err != nil {
			fmt.Printf("Import failed: %v\n", err)
			os.Exit(1)
		}

		switch to {
		case "table":
			out, err := eng.ExportTable(cmd.Context(), res.DefinitionID)
			if err != nil {
				fmt.Printf("Export failed: %v\n", err)
				os.Exit(1)
			}
			os.Stdout.Write(out)
		case "editor":
			doc, err := eng.ExportEditor(cmd.Context(), res.DefinitionID)
			if err != nil {
				fmt.Printf("Export failed: %v\n", err)
				os.Exit(1)
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(doc); err != nil {
				fmt.Printf("Encode failed: %v\n", err)
				os.Exit(1)
			}
		default:
			fmt.Printf("Unknown target format %q (want table or editor)\n", to)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().String("to", "table", "Target format: table or editor")
	exportCmd.Flags().String("format", "", "Source format: graph or table (default: by extension)")
}
