package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sabarim/b3quotes/internal/resources"
)

func newResourcesCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "resources",
		Short: "List the AWS resource types used by the deployment",
		RunE: func(cmd *cobra.Command, args []string) error {
			return resources.Write(os.Stdout, resources.AWSServices, format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or yaml")
	return cmd
}
