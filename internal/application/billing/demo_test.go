package billing_test

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/psicofattura/internal/application/billing"
	"github.com/jhoicas/psicofattura/internal/application/dto"
	"github.com/jhoicas/psicofattura/internal/domain"
	dfatturapa "github.com/jhoicas/psicofattura/internal/domain/fatturapa"
	"github.com/jhoicas/psicofattura/internal/infrastructure/aruba"
	"github.com/jhoicas/psicofattura/pkg/logger"
)

func TestDemoTriple_Coerente(t *testing.T) {
	inv, psy, patient := billing.DemoTriple()
	assert.Equal(t, psy.ID, inv.PsychologistID)
	assert.Equal(t, patient.ID, inv.PatientID)
	assert.NoError(t, dfatturapa.ValidatePatient(patient))
	assert.NoError(t, dfatturapa.ValidateInvoice(inv))
}

func TestDemo_TipoNonValido(t *testing.T) {
	svc, _ := newService(t, enabledConfig())
	_, err := svc.Demo(context.Background(), "boh")
	ee := requireEInvoiceError(t, err, domain.ErrInvalidInput, "Invalid test type")
	assert.Equal(t, []string{"connection", "xml", "upload", "status", "full"}, ee.Details)
}

func TestDemo_ConnessionePredefinita(t *testing.T) {
	svc, _ := newService(t, enabledConfig())
	out, err := svc.Demo(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, "connection", out.Test)
	assert.Equal(t, aruba.ConnectionResult{Success: true, Message: "ok"}, out.Result)
	assert.NotNil(t, out.Environment)
}

func TestDemo_XML_SenzaIntermediario(t *testing.T) {
	svc := billing.NewEInvoiceService(enabledConfig(), newGenerator(nil), nil, nil, nil, nil, nil, nil, logger.Nop())
	out, err := svc.Demo(context.Background(), dto.DemoXML)
	require.NoError(t, err)

	assert.Equal(t, "xml-generation", out.Test)
	res, ok := out.Result.(dto.DemoXMLResult)
	require.True(t, ok)
	assert.True(t, res.Success)
	assert.Greater(t, res.XMLLength, 500)
	assert.True(t, strings.HasSuffix(res.Preview, "..."))
	assert.Equal(t, 503, utf8.RuneCountInString(res.Preview))
	assert.True(t, strings.HasPrefix(res.Preview, "<?xml"))
}

func TestDemo_Upload_SenzaIntermediario(t *testing.T) {
	svc := billing.NewEInvoiceService(enabledConfig(), newGenerator(nil), nil, nil, nil, nil, nil, nil, logger.Nop())
	_, err := svc.Demo(context.Background(), dto.DemoUpload)
	assert.ErrorIs(t, err, domain.ErrEInvoicingDisabled)
}

func TestDemo_UploadEStato(t *testing.T) {
	svc, e := newService(t, enabledConfig())

	out, err := svc.Demo(context.Background(), dto.DemoUpload)
	require.NoError(t, err)
	assert.Equal(t, "invoice-upload", out.Test)
	assert.Equal(t, []string{"test_invoice.xml"}, e.intermediary.uploaded)

	out, err = svc.Demo(context.Background(), dto.DemoStatus)
	require.NoError(t, err)
	assert.Equal(t, "status-check", out.Test)
}

func TestDemo_FlussoCompleto(t *testing.T) {
	svc, e := newService(t, enabledConfig())
	e.intermediary.status = &aruba.InvoiceStatus{Status: "delivered"}

	out, err := svc.Demo(context.Background(), dto.DemoFull)
	require.NoError(t, err)

	assert.Equal(t, "full-workflow", out.Test)
	require.NotNil(t, out.Summary)
	assert.Equal(t, dto.DemoSummary{Connection: true, XMLGeneration: true, Upload: true, StatusCheck: true}, *out.Summary)
	require.Len(t, e.intermediary.uploaded, 1)
	assert.Regexp(t, `^test_full_\d+\.xml$`, e.intermediary.uploaded[0])
	assert.Empty(t, out.Results.XMLGeneration.Errors)
}

func TestDemo_FlussoCompleto_StatoAssente(t *testing.T) {
	svc, _ := newService(t, enabledConfig())

	out, err := svc.Demo(context.Background(), dto.DemoFull)
	require.NoError(t, err)
	assert.False(t, out.Summary.StatusCheck)
	assert.Nil(t, out.Results.Status)
}
