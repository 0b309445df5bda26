package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/msto63/zuse/pkg/core/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("zuse v%s\n", version.Interpreter)
		fmt.Printf("  Pipe Protocol: %s\n", version.PipeProtocol)
		fmt.Printf("  Journal:       %s\n", version.Journal)
		fmt.Printf("  Git Commit:    %s\n", version.Commit)
		fmt.Printf("  Build Date:    %s\n", version.BuildDate)
		fmt.Printf("  Go Version:    %s\n", runtime.Version())
		fmt.Printf("  OS/Arch:       %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
