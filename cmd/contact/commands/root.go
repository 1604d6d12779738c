// Package commands implements the contact CLI.
package commands

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Execute runs the contact CLI with os.Args.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// NewRootCommand builds the command tree. A fresh tree per call keeps flag
// state out of package globals.
func NewRootCommand() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:          "contact",
		Short:        "Submit and inspect portfolio contact messages",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if envFile == "" {
				return nil
			}
			// A missing .env is fine; flags and the environment still apply.
			_ = godotenv.Load(envFile)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before running")

	root.AddCommand(sendCmd(), archiveCmd())
	return root
}
