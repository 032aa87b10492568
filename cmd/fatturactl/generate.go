package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jhoicas/psicofattura/internal/domain/entity"
	"github.com/jhoicas/psicofattura/internal/infrastructure/fatturapa"
)

// triple archivo YAML con los tres registros que alimentan el documento.
type triple struct {
	Psychologist *entity.Psychologist `yaml:"psicologo"`
	Patient      *entity.Patient      `yaml:"paziente"`
	Invoice      *entity.Invoice      `yaml:"fattura"`
}

func loadTriple(path string) (*triple, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var t triple
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if t.Psychologist == nil || t.Patient == nil || t.Invoice == nil {
		return nil, fmt.Errorf("%s: servono psicologo, paziente e fattura", path)
	}
	return &t, nil
}

func newGenerateCmd(app *cli) *cobra.Command {
	var (
		input       string
		out         string
		progressive string
		amendment   bool
		original    string
		strict      bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Genera il file XML FatturaPA da un file YAML",
		Example: `  fatturactl generate --input parcella.yaml --out fattura.xml
  fatturactl generate --input nota.yaml --amendment --original 1/2024`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := loadTriple(input)
			if err != nil {
				return err
			}
			doc, err := generator(strict).Generate(fatturapa.BuildInput{
				Invoice:      t.Invoice,
				Psychologist: t.Psychologist,
				Patient:      t.Patient,
				Options: fatturapa.BuildOptions{
					ProgressiveNumber:        progressive,
					IsAmendment:              amendment,
					OriginalInvoiceReference: original,
				},
			})
			if err != nil {
				var verr *fatturapa.ValidationError
				if errors.As(err, &verr) {
					for _, e := range verr.Errors {
						fmt.Fprintln(cmd.ErrOrStderr(), "  -", e)
					}
				}
				return err
			}
			app.log.Info().
				Str("filename", doc.Filename).
				Str("hash", doc.Hash).
				Int("size", doc.Size).
				Str("progressivo", doc.ProgressiveNumber).
				Msg("XML generato")
			if err := writeOutput(cmd.OutOrStdout(), out, doc.XML); err != nil {
				return err
			}
			if out != "" && out != "-" {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s\nsha256 %s\nnome SDI %s\n", out, doc.Hash, doc.Filename)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "file YAML con psicologo, paziente e fattura")
	cmd.Flags().StringVarP(&out, "out", "o", "", "file di destinazione (predefinito stdout)")
	cmd.Flags().StringVar(&progressive, "progressive", "", "ProgressivoInvio fisso (predefinito generato)")
	cmd.Flags().BoolVar(&amendment, "amendment", false, "genera una nota di credito (TD04)")
	cmd.Flags().StringVar(&original, "original", "", "numero della fattura stornata dalla nota di credito")
	cmd.Flags().BoolVar(&strict, "strict", false, "valida sull'albero XML invece che sui marcatori")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
