package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	serveInit []string
	serveName string
)

var serveCmd = &cobra.Command{
	Use:   "serve <pipe>",
	Short: "Serve a pipe until interrupted",
	Long: `Creates a pipe server and answers command lines from pipe
clients until SIGINT or SIGTERM.

All requests run on one server thread, one at a time. Init scripts
run before the server starts; functions and global variables they
define are available to clients.

Examples:
  zuse serve jobs
  zuse serve jobs --init lib.zs --name worker`,
	Args: cobra.ExactArgs(1),
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringArrayVar(&serveInit, "init", nil, "script to run before serving (repeatable)")
	serveCmd.Flags().StringVar(&serveName, "name", "", "server name (default: the pipe name)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp()
	if err != nil {
		printError("setup failed", err)
		return err
	}
	defer a.Close()

	initThread := a.interp.NewThread()
	for _, path := range serveInit {
		report, err := a.runner.RunFile(initThread, path)
		if err != nil {
			printError("init script "+path, err)
			return err
		}
		if err := report.Err(); err != nil {
			printError("init script "+path, err)
			return err
		}
	}

	pipeName := args[0]
	server, err := a.bridge.CreatePipeServer(pipeName, serveName)
	if err != nil {
		printError("cannot serve "+pipeName, err)
		return err
	}

	fmt.Printf("Serving pipe %s as %s (%s) at %s\n",
		server.Pipe(), server.Name(), a.bridge.Transport(), server.Addr())

	<-ctx.Done()

	a.logger.Info("Shutting down pipe server",
		"server", server.Name(),
		"requests", server.Requests(),
		"failures", server.Failures())
	if err := a.bridge.RemoveServer(server.Name()); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: graceful stop failed: %v\n", err)
	}
	return nil
}
