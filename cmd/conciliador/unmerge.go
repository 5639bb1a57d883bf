package main

import (
	"fmt"

	"reconciliation-service/internal/core/loader"

	"github.com/spf13/cobra"
)

func newUnmergeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unmerge <origem> [destino]",
		Short: "Desfaz células mescladas e grava uma cópia limpa em .xlsx",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dst := ""
			if len(args) == 2 {
				dst = args[1]
			}
			written, err := loader.Unmerge(args[0], dst)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Arquivo salvo: %s\n", written)
			return nil
		},
	}
}
