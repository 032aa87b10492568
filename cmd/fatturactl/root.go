package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jhoicas/psicofattura/internal/application/billing"
	"github.com/jhoicas/psicofattura/internal/infrastructure/aruba"
	"github.com/jhoicas/psicofattura/internal/infrastructure/fatturapa"
	"github.com/jhoicas/psicofattura/internal/infrastructure/ratelimit"
	"github.com/jhoicas/psicofattura/pkg/config"
	"github.com/jhoicas/psicofattura/pkg/logger"
)

// cli estado compartido por los subcomandos.
type cli struct {
	envFile  string
	logLevel string
	log      *logger.Logger
}

func newRootCmd() *cobra.Command {
	app := &cli{}
	root := &cobra.Command{
		Use:   "fatturactl",
		Short: "Strumenti FatturaPA per parcelle di psicologia",
		Long: `fatturactl genera e valida il tracciato FatturaPA 1.2.1 di una parcella
e verifica la connessione con l'intermediario Aruba usando la stessa
configurazione del servizio (variabili ARUBA_FE_*, FEATURE_ELECTRONIC_INVOICING).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if app.envFile != "" {
				if err := godotenv.Load(app.envFile); err != nil {
					return fmt.Errorf("caricare %s: %w", app.envFile, err)
				}
			}
			app.log = logger.New(logger.Config{Env: "development", Level: app.logLevel, Out: cmd.ErrOrStderr()})
			return nil
		},
	}
	root.PersistentFlags().StringVar(&app.envFile, "env-file", "", "file .env da caricare prima della configurazione")
	root.PersistentFlags().StringVar(&app.logLevel, "log-level", "warn", "trace | debug | info | warn | error")

	root.AddCommand(
		newGenerateCmd(app),
		newValidateCmd(app),
		newPingCmd(app),
		newDemoCmd(app),
	)
	return root
}

// intermediary construye el cliente Aruba con la configuración del entorno.
func (a *cli) intermediary() (config.EInvoicingConfig, *aruba.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.EInvoicingConfig{}, nil, err
	}
	client, err := aruba.NewClient(cfg.EInvoicing, ratelimit.NewLocalLimiter(), a.log)
	if err != nil {
		return cfg.EInvoicing, nil, err
	}
	return cfg.EInvoicing, client, nil
}

// generator pipeline build → serialize → validate con el validador pedido.
func generator(strict bool) *fatturapa.Generator {
	var v fatturapa.DocumentValidator = fatturapa.MarkerValidator{}
	if strict {
		v = fatturapa.ElementValidator{}
	}
	return fatturapa.NewGenerator(fatturapa.NewBuilder(fatturapa.NewClockRandomSource()), v)
}

// einvoiceService orquestador sin persistencia; intermediary puede ser nil.
func (a *cli) einvoiceService(cfg config.EInvoicingConfig, client *aruba.Client) *billing.EInvoiceService {
	var intermediary billing.Intermediary
	if client != nil {
		intermediary = client
	}
	return billing.NewEInvoiceService(cfg, generator(false), intermediary, nil, nil, nil, nil, nil, a.log)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeOutput(w io.Writer, path, content string) error {
	if path == "" || path == "-" {
		_, err := io.WriteString(w, content)
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
