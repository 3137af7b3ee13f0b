package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "storefrontctl",
		Short:         "Support tooling for the storefront service",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(codesCmd())
	root.AddCommand(tokenCmd())
	root.AddCommand(staffTokenCmd())
	root.AddCommand(verifyReceiptCmd())
	root.AddCommand(verifyTrackingCmd())
	root.AddCommand(migrateCmd())

	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
