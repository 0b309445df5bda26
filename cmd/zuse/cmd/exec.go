package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/msto63/zuse/internal/cmdline"
)

var execCmd = &cobra.Command{
	Use:   "exec <command> [args...]",
	Short: "Run a single command line",
	Long: `Runs one command line and prints its result.

Examples:
  zuse exec Eval 6 * 7
  zuse exec Commands`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExec,
}

func init() {
	rootCmd.AddCommand(execCmd)
	execCmd.Flags().SetInterspersed(false)
}

func runExec(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		printError("setup failed", err)
		return err
	}
	defer a.Close()

	result, err := a.interp.Process(a.interp.NewThread(), cmdline.Quote(args))
	if err != nil {
		printError(args[0]+" failed", err)
		return err
	}
	if result != "" {
		fmt.Println(result)
	}
	return nil
}
