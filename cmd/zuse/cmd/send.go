package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	zerror "github.com/msto63/zuse/foundation/core/error"
	"github.com/msto63/zuse/internal/cmdline"
	"github.com/msto63/zuse/pkg/core/health"
)

var sendCmd = &cobra.Command{
	Use:   "send <pipe> <command> [args...]",
	Short: "Send one command line to a pipe server",
	Long: `Connects to the server of a pipe, sends one command line and
prints the response. Variables are substituted by the server.

Examples:
  zuse send jobs Echo hello
  zuse send jobs Get counter`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSend,
}

var statusTimeout time.Duration

var statusCmd = &cobra.Command{
	Use:   "status <pipe> [pipe...]",
	Short: "Check pipe servers",
	Long: `Connects a client to every named pipe and reports whether its
server answers.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(statusCmd)
	sendCmd.Flags().SetInterspersed(false)
	statusCmd.Flags().DurationVar(&statusTimeout, "timeout", 5*time.Second, "health check timeout")
}

func runSend(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		printError("setup failed", err)
		return err
	}
	defer a.Close()

	client, err := a.bridge.CreatePipeClient(args[0], "")
	if err != nil {
		printError("cannot connect to "+args[0], err)
		return err
	}

	response, err := client.GetServerResponse(cmdline.Quote(args[1:]))
	if err != nil {
		printError(args[1]+" failed", err)
		return err
	}
	if response != "" {
		fmt.Println(response)
	}
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		printError("setup failed", err)
		return err
	}
	defer a.Close()

	unreachable := 0
	for _, name := range args {
		if _, err := a.bridge.CreatePipeClient(name, ""); err != nil {
			fmt.Printf("%s: %s (%v)\n", name, health.StatusUnhealthy, err)
			unreachable++
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), statusTimeout)
	defer cancel()
	report := a.bridge.Health(ctx)
	fmt.Println(report.String())
	if unreachable > 0 || report.Status != health.StatusHealthy {
		return zerror.Newf("%d of %d pipes not healthy", unreachable+countUnhealthy(report), len(args)).
			WithCode(zerror.CodePipeUnavailable)
	}
	return nil
}

func countUnhealthy(report *health.Report) int {
	n := 0
	for _, c := range report.Checks {
		if c.Status != health.StatusHealthy {
			n++
		}
	}
	return n
}
