package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jhoicas/psicofattura/internal/infrastructure/fatturapa"
)

func newValidateCmd(_ *cli) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "validate <file.xml>",
		Short: "Verifica la struttura di un file FatturaPA",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var v fatturapa.DocumentValidator = fatturapa.MarkerValidator{}
			if strict {
				v = fatturapa.ElementValidator{}
			}
			res := v.Validate(string(raw))
			if !res.Valid {
				for _, e := range res.Errors {
					fmt.Fprintln(cmd.ErrOrStderr(), "  -", e)
				}
				return fmt.Errorf("%s: %d errori di struttura", args[0], len(res.Errors))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: valido (sha256 %s)\n", args[0], fatturapa.HashXML(string(raw)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "valida sull'albero XML invece che sui marcatori")
	return cmd
}
