package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"reconciliation-service/internal/runner"

	"github.com/spf13/cobra"
)

var errPathsMissing = errors.New("há empresas sem pasta ou sem arquivos")

func newValidateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate-paths [empresas...]",
		Short: "Confere pastas e arquivos do período sem conciliar",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			base, checks, err := runner.New(cfg, nil).Validate(runner.Request{Companies: args})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Pasta base: %s\n\n", base)
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "EMPRESA\tPASTA\tARQUIVOS\tFONTE A\tFONTE B\tERRO")
			missing := false
			for _, c := range checks {
				dir := c.Dir
				if c.Fuzzy {
					dir += " (aproximada)"
				}
				if !c.Exists {
					dir = "não encontrada"
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n", c.Company, dir, c.FileCount, len(c.SourceA), len(c.SourceB), c.Err)
				if !c.OK() {
					missing = true
				}
			}
			tw.Flush()
			if missing {
				return errPathsMissing
			}
			return nil
		},
	}
}
