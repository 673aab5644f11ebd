package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/iota-uz/ats-console/pkg/uxdiff"
)

func newUXCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ux",
		Short: "Inspect and roll back per-module UX configuration",
	}
	cmd.AddCommand(newUXGetCmd(flags))
	cmd.AddCommand(newUXVersionsCmd(flags))
	cmd.AddCommand(newUXRollbackCmd(flags))
	return cmd
}

func newUXGetCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get <module>",
		Short: "Print the normalized UX config of a module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := flags.client()
			if err != nil {
				return err
			}
			cfg, err := client.UXConfig(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSONLine(cmd.OutOrStdout(), cfg)
		},
	}
}

func newUXVersionsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "versions <module>",
		Short: "List UX config versions, newest first, one JSON object per line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := flags.client()
			if err != nil {
				return err
			}
			items, err := client.UXVersions(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := uxdiff.Fill(items); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: diff unavailable:", err)
			}
			sort.SliceStable(items, func(i, j int) bool {
				return items[i].Version > items[j].Version
			})
			for _, item := range items {
				if err := writeJSONLine(cmd.OutOrStdout(), item); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newUXRollbackCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "rollback <module> <version>",
		Short: "Make an earlier UX config version active again",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.Atoi(args[1])
			if err != nil {
				return withCode(exitValidation, fmt.Errorf("invalid version %q", args[1]))
			}
			client, err := flags.client()
			if err != nil {
				return err
			}
			cfg, err := client.RollbackUX(cmd.Context(), args[0], version)
			if err != nil {
				return err
			}
			return writeJSONLine(cmd.OutOrStdout(), cfg)
		},
	}
}
