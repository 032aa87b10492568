package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newPingCmd(app *cli) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Verifica credenziali e connessione con l'intermediario",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, client, err := app.intermediary()
			if err != nil {
				return err
			}
			defer client.SignOut()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			res := client.TestConnection(ctx)
			if err := printJSON(cmd.OutOrStdout(), map[string]any{
				"result":      res,
				"environment": client.EnvironmentInfo(),
			}); err != nil {
				return err
			}
			if !res.Success {
				return fmt.Errorf("connessione fallita: %s", res.Message)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 90*time.Second, "tempo massimo")
	return cmd
}
