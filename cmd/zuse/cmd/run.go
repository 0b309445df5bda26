package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	zerror "github.com/msto63/zuse/foundation/core/error"
)

var (
	runRethrow bool
	runQuiet   bool
)

var runCmd = &cobra.Command{
	Use:   "run <script> [script...]",
	Short: "Run script files",
	Long: `Runs script files line by line on one command thread.

Failed lines are reported with file and line number and the run
continues, unless --rethrow is given. Variables set by one script
are visible to the next.

Examples:
  zuse run setup.zs
  zuse run --rethrow lib.zs main.zs`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&runRethrow, "rethrow", false, "stop at the first failing line")
	runCmd.Flags().BoolVarP(&runQuiet, "quiet", "q", false, "do not print the last result")
}

func runRun(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		printError("setup failed", err)
		return err
	}
	defer a.Close()

	thread := a.interp.NewThread()
	var failed bool
	for _, path := range args {
		report, err := a.runner.RunFile(thread, path)
		if err != nil {
			printError("cannot run "+path, err)
			return err
		}
		for _, lineErr := range report.Errors {
			fmt.Fprintf(os.Stderr, "%s [%s]\n", lineErr.Error(), zerror.GetCode(lineErr.Err))
		}
		if len(report.Errors) > 0 {
			failed = true
		}
		if report.Aborted {
			return report.Err()
		}
		if !runQuiet && report.Last != "" {
			fmt.Println(report.Last)
		}
	}
	if failed {
		return zerror.New("script finished with errors").WithCode(zerror.CodeEvaluationFailed)
	}
	return nil
}
