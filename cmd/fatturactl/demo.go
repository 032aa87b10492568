package main

import (
	"github.com/spf13/cobra"

	"github.com/jhoicas/psicofattura/internal/application/dto"
	"github.com/jhoicas/psicofattura/pkg/config"
)

func newDemoCmd(app *cli) *cobra.Command {
	return &cobra.Command{
		Use:       "demo [connection|xml|upload|status|full]",
		Short:     "Esegue le prove dimostrative con la parcella di esempio",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: dto.DemoKinds,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := dto.DemoConnection
			if len(args) == 1 {
				kind = args[0]
			}
			// xml funziona anche senza configurazione dell'intermediario.
			cfg, client, err := app.intermediary()
			if err != nil && kind != dto.DemoXML {
				return err
			}
			if client != nil {
				defer client.SignOut()
			}
			out, err := app.einvoiceService(demoConfig(cfg), client).Demo(cmd.Context(), kind)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
}

func demoConfig(cfg config.EInvoicingConfig) config.EInvoicingConfig {
	if cfg.Environment == "" {
		cfg.Environment = config.EnvironmentMock
	}
	return cfg
}
