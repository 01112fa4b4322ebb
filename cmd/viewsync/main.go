// Command viewsync runs the display synchronization server.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"viewsync/internal/auth"
	"viewsync/internal/server/bootstrap"
)

var (
	configFile        string
	observabilityFile string
)

func isTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func banner() {
	if !isTTY() {
		return
	}
	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Println("viewsync")
	fmt.Printf("display synchronization server v%s\n\n", bootstrap.Version)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "viewsync",
		Short:        "Real-time display synchronization server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default ./viewsync.yaml)")
	root.PersistentFlags().StringVar(&observabilityFile, "observability-config", "", "observability config file")

	root.AddCommand(newServeCmd())
	root.AddCommand(newVersionCmd())
	root.AddCommand(newHashPasswordCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	banner()
	return bootstrap.RunServer(configFile, observabilityFile)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("viewsync %s\n", bootstrap.Version)
		},
	}
}

// hash-password prints the digest expected in auth.admin_pass_hash, so
// operators never put a plaintext password in the config file.
func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Hash an admin password for the config file",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(auth.HashPassword(args[0]))
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		red := color.New(color.FgRed)
		red.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
