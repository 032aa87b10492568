package http_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/psicofattura/internal/application/billing"
	"github.com/jhoicas/psicofattura/internal/domain"
	apphttp "github.com/jhoicas/psicofattura/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// generate-xml
// ──────────────────────────────────────────────────────────────────────────────

func TestGenerateXML_OK(t *testing.T) {
	d := newDeps()
	resp := call(t, d.app(), http.MethodPost, "/api/fattura-elettronica/generate-xml", "segreteria", `{"invoiceId":"1"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode(t, resp)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "IT_1.xml", body["filename"])
}

func TestGenerateXML_FunzioneDisabilitata503(t *testing.T) {
	d := newDeps()
	d.einvoicing.enabled = false
	resp := call(t, d.app(), http.MethodPost, "/api/fattura-elettronica/generate-xml", "admin", `{}`)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	body := decode(t, resp)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Electronic invoicing is not enabled", body["error"])
}

func TestRequireEInvoicing_ServizioNil503(t *testing.T) {
	var svc *billing.EInvoiceService
	app := fiber.New()
	app.Get("/x", apphttp.RequireEInvoicing(svc), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/x", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestGenerateXML_XMLNonValido400ConDettagli(t *testing.T) {
	d := newDeps()
	d.einvoicing.err = &billing.EInvoiceError{
		Kind:    domain.ErrXMLValidation,
		Message: "XML validation failed",
		Details: []string{"Missing required element: CodiceFiscale"},
	}
	resp := call(t, d.app(), http.MethodPost, "/api/fattura-elettronica/generate-xml", "admin", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decode(t, resp)
	assert.Equal(t, "XML validation failed", body["error"])
	assert.Equal(t, []any{"Missing required element: CodiceFiscale"}, body["details"])
}

func TestGenerateXML_ErroreInterno500ConFallback(t *testing.T) {
	d := newDeps()
	d.einvoicing.err = errors.New("serializzazione rotta")
	resp := call(t, d.app(), http.MethodPost, "/api/fattura-elettronica/generate-xml", "admin", `{}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	body := decode(t, resp)
	assert.Equal(t, "Failed to generate XML", body["error"])
	assert.Equal(t, "serializzazione rotta", body["details"])
}

func TestGenerateXML_CorpoNonValido(t *testing.T) {
	d := newDeps()
	resp := call(t, d.app(), http.MethodPost, "/api/fattura-elettronica/generate-xml", "admin", `{invalid`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGenerateXML_SenzaToken401(t *testing.T) {
	d := newDeps()
	resp := call(t, d.app(), http.MethodPost, "/api/fattura-elettronica/generate-xml", "", `{}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// send
// ──────────────────────────────────────────────────────────────────────────────

func TestSend_CaricamentoRifiutato400(t *testing.T) {
	d := newDeps()
	d.einvoicing.err = &billing.EInvoiceError{
		Kind:    domain.ErrUploadRejected,
		Message: "Failed to upload to Aruba",
		Details: []map[string]string{{"code": "UPLOAD_ERROR", "description": "boom"}},
	}
	resp := call(t, d.app(), http.MethodPost, "/api/fattura-elettronica/send", "admin", `{"xmlData":"<x/>","filename":"a.xml"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decode(t, resp)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Failed to upload to Aruba", body["error"])
	assert.NotEmpty(t, body["details"])
}

func TestSend_AutenticazioneFallita401(t *testing.T) {
	d := newDeps()
	d.einvoicing.err = &billing.EInvoiceError{
		Kind:    domain.ErrIntermediaryAuth,
		Message: "Authentication failed",
		Details: "Check your Aruba API credentials in environment configuration",
	}
	resp := call(t, d.app(), http.MethodPost, "/api/fattura-elettronica/send", "admin", `{"xmlData":"<x/>","filename":"a.xml"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	body := decode(t, resp)
	assert.Equal(t, "Authentication failed", body["error"])
	assert.Equal(t, "Check your Aruba API credentials in environment configuration", body["details"])
}

func TestSend_LimiteRichieste429(t *testing.T) {
	d := newDeps()
	d.einvoicing.err = &billing.EInvoiceError{Kind: domain.ErrRateLimited, Message: "Aruba rate limit exceeded, retry later"}
	resp := call(t, d.app(), http.MethodPost, "/api/fattura-elettronica/send", "admin", `{"xmlData":"<x/>","filename":"a.xml"}`)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestSend_ErroreTrasmissione502(t *testing.T) {
	d := newDeps()
	d.einvoicing.err = errors.Join(domain.ErrTransmission, errors.New("connection reset"))
	resp := call(t, d.app(), http.MethodPost, "/api/fattura-elettronica/send", "admin", `{"xmlData":"<x/>","filename":"a.xml"}`)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// status
// ──────────────────────────────────────────────────────────────────────────────

func TestStatus_OK(t *testing.T) {
	d := newDeps()
	resp := call(t, d.app(), http.MethodGet, "/api/fattura-elettronica/status/IT_1.xml", "segreteria", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode(t, resp)
	assert.Equal(t, "accepted", body["status"])
}

func TestStatus_NonTrovato404(t *testing.T) {
	d := newDeps()
	d.einvoicing.err = &billing.EInvoiceError{Kind: domain.ErrNotFound, Message: "Invoice not found in Aruba system"}
	resp := call(t, d.app(), http.MethodGet, "/api/fattura-elettronica/status/IT_1.xml", "admin", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	body := decode(t, resp)
	assert.Equal(t, "Invoice not found in Aruba system", body["error"])
}

func TestStatusAction_PassaAzione(t *testing.T) {
	d := newDeps()
	resp := call(t, d.app(), http.MethodPost, "/api/fattura-elettronica/status/IT_1.xml", "admin", `{"action":"get-notifications"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "get-notifications", d.einvoicing.action)
}

func TestStatusAction_AzioneSconosciuta400(t *testing.T) {
	d := newDeps()
	d.einvoicing.err = &billing.EInvoiceError{Kind: domain.ErrInvalidInput, Message: "Unknown action: boh"}
	resp := call(t, d.app(), http.MethodPost, "/api/fattura-elettronica/status/IT_1.xml", "admin", `{"action":"boh"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decode(t, resp)
	assert.Equal(t, "Unknown action: boh", body["error"])
}

// ──────────────────────────────────────────────────────────────────────────────
// amend, test-connection, test-mock
// ──────────────────────────────────────────────────────────────────────────────

func TestAmend_ErroreInterno500(t *testing.T) {
	d := newDeps()
	d.einvoicing.err = errors.New("db down")
	resp := call(t, d.app(), http.MethodPost, "/api/fattura-elettronica/amend", "admin", `{}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	body := decode(t, resp)
	assert.Equal(t, "Failed to create credit note", body["error"])
}

func TestTestConnection_SempreOKAncheDisabilitata(t *testing.T) {
	d := newDeps()
	d.einvoicing.enabled = false
	resp := call(t, d.app(), http.MethodGet, "/api/fattura-elettronica/test-connection", "admin", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode(t, resp)
	assert.Equal(t, false, body["success"])
	config, ok := body["configuration"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "none", config["environment"])
}

func TestDemo_TipoNonValido400ConElenco(t *testing.T) {
	d := newDeps()
	resp := call(t, d.app(), http.MethodGet, "/api/fattura-elettronica/test-mock?test=boh", "admin", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decode(t, resp)
	assert.Equal(t, "Invalid test type", body["error"])
	assert.Equal(t, []any{"connection", "xml", "upload", "status", "full"}, body["availableTests"])
	assert.Empty(t, d.einvoicing.demo, "el servicio no debe invocarse")
}

func TestDemo_PredefinitoConnection(t *testing.T) {
	d := newDeps()
	resp := call(t, d.app(), http.MethodGet, "/api/fattura-elettronica/test-mock", "admin", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "connection", d.einvoicing.demo)
}

func TestDemo_Fallito500(t *testing.T) {
	d := newDeps()
	d.einvoicing.err = errors.New("boom")
	resp := call(t, d.app(), http.MethodGet, "/api/fattura-elettronica/test-mock?test=xml", "admin", "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	body := decode(t, resp)
	assert.Equal(t, "Test failed", body["error"])
	assert.Equal(t, "boom", body["details"])
}

