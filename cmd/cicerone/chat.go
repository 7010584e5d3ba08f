package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/cicerone-chat/cicerone/internal/presentation/tui"
	"github.com/cicerone-chat/cicerone/pkg/domain"
)

var chatCmd = &cobra.Command{
	Use:   "chat <file>",
	Short: "Preview a scenario as an interactive chat",
	Long: `Compiles a scenario file and walks it interactively: responses are
rendered as markdown and each turn offers the node's options as a numbered
list. Type the number to select, "restart" to jump back, or "exit" to quit.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			fmt.Println("chat needs an interactive terminal")
			os.Exit(1)
		}

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
		for _, issue := range res.Issues {
			fmt.Printf("issue: %s\n", issue.String())
		}

		renderer := tui.NewRenderer()
		reader := bufio.NewReader(os.Stdin)
		ctx := cmd.Context()

		reply, err := eng.Select(ctx, res.DefinitionID, domain.SelectionRestart, "preview")
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		for {
			fmt.Print(renderer.Reply(reply))
			if reply.Handover {
				return
			}
			if len(reply.Options) == 0 {
				return
			}

			fmt.Print("> ")
			text, err := reader.ReadString('\n')
			if err != nil {
				return
			}
			input := strings.TrimSpace(text)

			switch input {
			case "exit", "quit":
				fmt.Println("Bye!")
				return
			case "", "restart":
				input = domain.SelectionRestart
			default:
				idx, err := strconv.Atoi(input)
				if err != nil || idx < 1 || idx > len(reply.Options) {
					fmt.Println("Pick one of the listed numbers.")
					continue
				}
				opt := reply.Options[idx-1]
				if opt.Restart {
					input = domain.SelectionRestart
				} else {
					input = strconv.Itoa(int(opt.ID))
				}
			}

			reply, err = eng.Select(ctx, res.DefinitionID, input, "preview")
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				return
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().String("format", "", "Source format: graph or table (default: by extension)")
}
