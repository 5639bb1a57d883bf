package main

import (
	"fmt"
	"os"

	"reconciliation-service/internal/config"
	"reconciliation-service/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// options are the persistent flags shared by every subcommand.
type options struct {
	configFile string
	period     string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "conciliador",
		Short: "Concilia notas fiscais entre as exportações Domínio e Empresa",
		Long: `conciliador lê, para cada empresa do período, a exportação do livro fiscal
(Domínio) e a do registro da loja (Empresa), cruza as notas e grava um
consolidado em Excel com o status de cada documento.

Exemplos:
  conciliador run --period 11-2025
  conciliador run "LOJA CENTRO" --config ./conciliador.yaml
  conciliador validate-paths --period 11-2025
  conciliador unmerge ./DOMINIO.xlsx`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "arquivo de configuração YAML (padrão: valores embutidos)")
	root.PersistentFlags().StringVarP(&opts.period, "period", "p", "", "período no formato MM-AAAA (sobrepõe a configuração)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log em nível debug")

	root.AddCommand(
		newRunCmd(opts),
		newValidateCmd(opts),
		newUnmergeCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Erro: %v\n", err)
		os.Exit(1)
	}
}

func (o *options) load() (*config.Config, error) {
	cfg := config.Default()
	if o.configFile != "" {
		loaded, err := config.Load(o.configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if o.period != "" {
		cfg.Period = o.period
	}
	if o.verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// cliLogger writes to stderr so stdout keeps only the command output.
func cliLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.New(cfg.LogLevel, "console")
}
