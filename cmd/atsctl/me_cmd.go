package main

import (
	"github.com/spf13/cobra"
)

func newMeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Print the identity resolved for --org/--user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := flags.client()
			if err != nil {
				return err
			}
			id, err := client.Me(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSONLine(cmd.OutOrStdout(), id)
		},
	}
}
