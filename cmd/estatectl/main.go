package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:           "estatectl",
		Short:         "Pay for an estate settlement and track subscription cancellations",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file (default: ./config.yaml, ./configs, /etc/estateflow)")
	rootCmd.PersistentFlags().StringVar(&opts.backendURL, "backend-url", "", "Backend base URL (overrides backend.base_url)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(payCmd(opts))
	rootCmd.AddCommand(watchCmd(opts))
	rootCmd.AddCommand(cancellationCmd(opts))

	return rootCmd
}
