package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "seedload",
		Short:         "Load employees, projects and reported hours from a staffing workbook",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newLoadCmd())
	return cmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		code := exitCode(err)
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(code)
	}
}
