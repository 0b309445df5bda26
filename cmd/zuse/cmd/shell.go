package cmd

import (
	"github.com/spf13/cobra"

	"github.com/msto63/zuse/internal/console"
)

var shellNoHistory bool

var shellCmd = &cobra.Command{
	Use:     "shell",
	Aliases: []string{"console", "repl"},
	Short:   "Start the interactive console",
	Long: `Starts the interactive console on a single command thread.

Block commands (If, While, Function, ...) can be typed line by
line; the prompt shows the open nesting.

Key bindings:
  Enter       Run the line
  ↑/↓         Input history
  PgUp/PgDn   Scroll
  Ctrl+L      Clear the transcript
  Esc/Ctrl+C  Quit`,
	RunE: runShell,
}

func init() {
	rootCmd.AddCommand(shellCmd)
	shellCmd.Flags().BoolVar(&shellNoHistory, "no-history", false, "do not persist the input history")
}

func runShell(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		printError("setup failed", err)
		return err
	}
	defer a.Close()

	history := a.historyFile()
	if shellNoHistory {
		history = ""
	}
	return console.Run(console.Config{
		Interp:      a.interp,
		Thread:      a.interp.NewThread(),
		Prompt:      a.cfg.Interpreter.Prompt,
		HistoryFile: history,
		Logger:      a.logger.With("component", "console"),
	})
}
