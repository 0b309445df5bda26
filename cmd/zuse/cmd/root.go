package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "zuse",
	Short: "zuse - Embeddable command interpreter",
	Long: `zuse runs command scripts with nested blocks, variables,
background commands and a parallel job pool.

Interpreters in different processes talk to each other over
named pipes (unix sockets).

Commands:
  run     - Run a script file
  exec    - Run a single command line
  shell   - Interactive console
  serve   - Serve a pipe until interrupted
  send    - Send one command line to a pipe server
  journal - Show the command journal`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $ZUSE_CONFIG or ./configs/zuse.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

func printError(msg string, err error) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
}
