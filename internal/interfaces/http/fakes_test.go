package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/psicofattura/internal/application/dto"
	"github.com/jhoicas/psicofattura/internal/domain"
	"github.com/jhoicas/psicofattura/internal/domain/entity"
	apphttp "github.com/jhoicas/psicofattura/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes de la capa de aplicación
// ──────────────────────────────────────────────────────────────────────────────

type fakeAuth struct {
	loginErr error
}

func (f *fakeAuth) RegisterUser(_ context.Context, in dto.RegisterRequest) (*dto.UserResponse, error) {
	return &dto.UserResponse{ID: "u-1", Email: in.Email, Role: entity.RoleSegreteria}, nil
}

func (f *fakeAuth) Login(_ context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &dto.LoginResponse{Token: "tok", User: dto.UserResponse{Email: in.Email}}, nil
}

type fakePsychologists struct {
	createErr error
	deleted   []string
}

func (f *fakePsychologists) Create(_ context.Context, in *entity.Psychologist) (*entity.Psychologist, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	in.ID = "psy-1"
	return in, nil
}

func (f *fakePsychologists) Get(_ context.Context, id string) (*entity.Psychologist, error) {
	if id != "psy-1" {
		return nil, domain.ErrNotFound
	}
	return &entity.Psychologist{ID: id, FirstName: "Mario", LastName: "Rossi"}, nil
}

func (f *fakePsychologists) List(context.Context) ([]*entity.Psychologist, error) { return nil, nil }

func (f *fakePsychologists) Update(_ context.Context, id string, in *entity.Psychologist) (*entity.Psychologist, error) {
	in.ID = id
	return in, nil
}

func (f *fakePsychologists) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakePsychologists) SetPreferred(context.Context, string) error { return nil }

type fakePatients struct {
	searched string
	page     dto.PageRequest
}

func (f *fakePatients) Create(_ context.Context, in *entity.Patient) (*entity.Patient, error) {
	return in, nil
}

func (f *fakePatients) Get(_ context.Context, id string) (*entity.Patient, error) {
	return &entity.Patient{ID: id}, nil
}

func (f *fakePatients) List(_ context.Context, page dto.PageRequest) ([]*entity.Patient, error) {
	f.page = page
	return []*entity.Patient{{ID: "pat-1", LastName: "Verdi"}}, nil
}

func (f *fakePatients) Search(_ context.Context, q string, page dto.PageRequest) ([]*entity.Patient, error) {
	f.searched = q
	f.page = page
	return []*entity.Patient{{ID: "pat-2", LastName: "Bianchi"}}, nil
}

func (f *fakePatients) ListByPsychologist(context.Context, string) ([]*entity.PatientSummary, error) {
	return nil, nil
}

func (f *fakePatients) Update(_ context.Context, id string, in *entity.Patient) (*entity.Patient, error) {
	in.ID = id
	return in, nil
}

func (f *fakePatients) Delete(context.Context, string) error { return nil }

type fakeInvoices struct {
	year      int
	statusReq dto.InvoiceStatusRequest
	updateErr error
}

func (f *fakeInvoices) Create(_ context.Context, in *entity.Invoice) (*entity.Invoice, error) {
	return in, nil
}

func (f *fakeInvoices) Get(_ context.Context, id string) (*entity.Invoice, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeInvoices) List(context.Context, dto.InvoiceListQuery) ([]*entity.Invoice, error) {
	return nil, nil
}

func (f *fakeInvoices) Update(_ context.Context, _ string, _ *entity.Invoice) (*entity.Invoice, error) {
	return nil, f.updateErr
}

func (f *fakeInvoices) Delete(context.Context, string) error { return nil }

func (f *fakeInvoices) UpdateStatus(_ context.Context, id string, in dto.InvoiceStatusRequest) (*entity.Invoice, error) {
	f.statusReq = in
	return &entity.Invoice{ID: id, Status: in.Status}, nil
}

func (f *fakeInvoices) NextNumber(_ context.Context, year int) (*dto.NextNumberResponse, error) {
	f.year = year
	return &dto.NextNumberResponse{Number: "2024-0003"}, nil
}

func (f *fakeInvoices) Stats(context.Context) (*entity.InvoiceStats, error) {
	return &entity.InvoiceStats{Total: 3, Paid: 1}, nil
}

func (f *fakeInvoices) PDF(context.Context, string) (*dto.PDFResult, error) {
	return &dto.PDFResult{Filename: "Parcella_1-2024_Verdi_2024.pdf", Content: []byte("%PDF-1")}, nil
}

func (f *fakeInvoices) Export(context.Context, dto.InvoiceListQuery) ([]byte, error) {
	return []byte("PK"), nil
}

type fakeEInvoicing struct {
	enabled bool
	err     error
	demo    string
	action  string
}

func (f *fakeEInvoicing) Enabled() bool { return f.enabled }

func (f *fakeEInvoicing) GenerateXML(context.Context, dto.GenerateXMLRequest) (*dto.GenerateXMLResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &dto.GenerateXMLResponse{Success: true, Filename: "IT_1.xml", Validation: dto.Validation{Valid: true, Errors: []string{}}}, nil
}

func (f *fakeEInvoicing) Send(context.Context, dto.SendRequest) (*dto.SendResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &dto.SendResponse{Success: true, UploadFilename: "IT_1.xml"}, nil
}

func (f *fakeEInvoicing) Status(_ context.Context, filename string) (*dto.StatusResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &dto.StatusResponse{Success: true, Status: "accepted"}, nil
}

func (f *fakeEInvoicing) StatusAction(_ context.Context, _, action string) (any, error) {
	f.action = action
	if f.err != nil {
		return nil, f.err
	}
	return &dto.StatusResponse{Success: true, Status: "sent"}, nil
}

func (f *fakeEInvoicing) Amend(context.Context, dto.AmendRequest) (*dto.AmendResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &dto.AmendResponse{Success: true}, nil
}

func (f *fakeEInvoicing) TestConnection(context.Context) *dto.ConnectionTestResponse {
	if !f.enabled {
		return &dto.ConnectionTestResponse{
			Error:         domain.ErrEInvoicingDisabled.Error(),
			Configuration: dto.ConnectionConfiguration{Environment: "none"},
		}
	}
	return &dto.ConnectionTestResponse{Success: true, Message: "ok"}
}

func (f *fakeEInvoicing) Demo(_ context.Context, kind string) (*dto.DemoResponse, error) {
	f.demo = kind
	if f.err != nil {
		return nil, f.err
	}
	return &dto.DemoResponse{Test: kind}, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

type testDeps struct {
	auth          *fakeAuth
	psychologists *fakePsychologists
	patients      *fakePatients
	invoices      *fakeInvoices
	einvoicing    *fakeEInvoicing
}

func newDeps() *testDeps {
	return &testDeps{
		auth:          &fakeAuth{},
		psychologists: &fakePsychologists{},
		patients:      &fakePatients{},
		invoices:      &fakeInvoices{},
		einvoicing:    &fakeEInvoicing{enabled: true},
	}
}

func (d *testDeps) app() *fiber.App {
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC:         d.auth,
		PsychologistUC: d.psychologists,
		PatientUC:      d.patients,
		InvoiceUC:      d.invoices,
		EInvoicing:     d.einvoicing,
		JWTSecret:      testJWTSecret,
	})
	return app
}

// call ejecuta la petición con el token del rol indicado ("" = sin token).
func call(t *testing.T, app *fiber.App, method, path, role, body string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if role != "" {
		req.Header.Set("Authorization", tokenForRole(t, role))
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}
