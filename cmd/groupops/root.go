package main

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	logLevel string
	verbose  bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "groupops",
		Short:         "groupops executes bulk directory group operations from job descriptions",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "warn", "Log level (trace, debug, info, warn, error)")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(newRunCmd(flags))
	cmd.AddCommand(newOperationsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// effectiveLevel resolves the logger level from the root flags; --verbose
// wins over --log-level.
func (f *rootFlags) effectiveLevel() string {
	if f.verbose {
		return "debug"
	}
	return f.logLevel
}
