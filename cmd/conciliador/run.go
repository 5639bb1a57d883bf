package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"reconciliation-service/internal/domain"
	"reconciliation-service/internal/events"
	"reconciliation-service/internal/runner"

	"github.com/spf13/cobra"
)

func newRunCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run [empresas...]",
		Short: "Concilia as empresas do período e grava um consolidado por empresa",
		Long: `Concilia as empresas informadas, ou todas as da configuração quando nenhuma
for passada. Empresas sem pasta ou sem arquivos são puladas; o comando só
falha quando a pasta base do período não existe.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			logger, err := cliLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync()

			result, err := runner.New(cfg, events.ZapSink(logger)).Run(runner.Request{Companies: args})
			if err != nil {
				return err
			}
			writeResult(cmd.OutOrStdout(), result)
			return nil
		},
	}
}

func writeResult(out io.Writer, result *runner.Result) {
	fmt.Fprintf(out, "Período %s (%s)\n\n", result.Period, result.Base)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "EMPRESA\tSITUAÇÃO\tNOTAS\tCONFEREM\tDIVERGENTES\tSÓ A\tSÓ B\tCANCELADAS\tDETALHE")
	for _, c := range result.Companies {
		detail := c.Reason
		if c.Status == runner.CompanyDone {
			detail = c.Output
		}
		if c.Summary == nil {
			fmt.Fprintf(tw, "%s\t%s\t-\t-\t-\t-\t-\t-\t%s\n", c.Company, c.Status, detail)
			continue
		}
		s := c.Summary
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%s\n", c.Company, c.Status, s.Total,
			s.ByStatus[domain.StatusMatched], s.ByStatus[domain.StatusAmountMismatch],
			s.ByStatus[domain.StatusOnlyA], s.ByStatus[domain.StatusOnlyB], s.ByStatus[domain.StatusVoided], detail)
	}
	tw.Flush()
}
