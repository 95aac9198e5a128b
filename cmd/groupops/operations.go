package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/isometry/groupops/internal/job"
)

func newOperationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "operations",
		Short: "List the supported job operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range job.OperationNames() {
				spec, err := job.Lookup(name)
				if err != nil {
					return err
				}

				mode := ""
				if spec.DefaultDryRun {
					mode = " (destructive, defaults to dry-run)"
				} else if spec.Destructive {
					mode = " (destructive)"
				}

				fmt.Fprintf(cmd.OutOrStdout(), "%s%s\n", name, mode)
			}
			return nil
		},
	}

	return cmd
}
