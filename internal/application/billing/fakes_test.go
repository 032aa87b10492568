package billing_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/psicofattura/internal/domain"
	"github.com/jhoicas/psicofattura/internal/domain/entity"
	"github.com/jhoicas/psicofattura/internal/domain/repository"
	"github.com/jhoicas/psicofattura/internal/infrastructure/aruba"
	"github.com/jhoicas/psicofattura/internal/infrastructure/xlsx"
)

// ─────────────────────────────────────────────────────────────────────────────
// Repositorios en memoria
// ─────────────────────────────────────────────────────────────────────────────

type memInvoices struct {
	mu   sync.Mutex
	byID map[string]*entity.Invoice
}

func newMemInvoices(list ...*entity.Invoice) *memInvoices {
	m := &memInvoices{byID: map[string]*entity.Invoice{}}
	for _, inv := range list {
		cp := *inv
		m.byID[inv.ID] = &cp
	}
	return m
}

var _ repository.InvoiceRepository = (*memInvoices)(nil)

func (m *memInvoices) Create(_ context.Context, inv *entity.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.byID {
		if other.Number == inv.Number {
			return domain.ErrDuplicate
		}
	}
	cp := *inv
	m.byID[inv.ID] = &cp
	return nil
}

func (m *memInvoices) GetByID(_ context.Context, id string) (*entity.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *inv
	return &cp, nil
}

func (m *memInvoices) GetByUploadFilename(_ context.Context, filename string) (*entity.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inv := range m.byID {
		if inv.UploadFilename == filename {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memInvoices) List(_ context.Context, f entity.InvoiceFilter) ([]*entity.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Invoice
	for _, inv := range m.byID {
		if f.PsychologistID != "" && inv.PsychologistID != f.PsychologistID {
			continue
		}
		if f.PatientID != "" && inv.PatientID != f.PatientID {
			continue
		}
		if f.Year != 0 && inv.Date.Year() != f.Year {
			continue
		}
		cp := *inv
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memInvoices) Update(_ context.Context, inv *entity.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[inv.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *inv
	m.byID[inv.ID] = &cp
	return nil
}

func (m *memInvoices) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memInvoices) UpdateStatus(_ context.Context, id, status string, paymentDate *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	inv.Status = status
	inv.PaymentDate = entity.Date{}
	if paymentDate != nil {
		inv.PaymentDate = entity.Date{Time: *paymentDate}
	}
	return nil
}

func (m *memInvoices) AttachXML(_ context.Context, id, xml, hash, filename string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	inv.XMLData, inv.XMLHash, inv.UploadFilename, inv.Electronic = xml, hash, filename, true
	return nil
}

func (m *memInvoices) UpdateSDI(_ context.Context, id string, upd entity.SDIUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	if upd.Status != nil {
		inv.SDIStatus = *upd.Status
	}
	if upd.SDIID != nil {
		inv.SDIID = *upd.SDIID
	}
	if upd.UploadFilename != nil {
		inv.UploadFilename = *upd.UploadFilename
	}
	if upd.Errors != nil {
		inv.SDIErrors = upd.Errors
	}
	if upd.SubmissionDate != nil {
		inv.SDISubmissionDate = upd.SubmissionDate
	}
	if upd.LastCheck != nil {
		inv.SDILastCheck = upd.LastCheck
	}
	return nil
}

func (m *memInvoices) AppendSDIHistory(_ context.Context, id string, entry entity.SDIHistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	inv.SDIHistory = append(inv.SDIHistory, entry)
	return nil
}

func (m *memInvoices) NextInvoiceNumber(_ context.Context, year int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, inv := range m.byID {
		if inv.Date.Year() == year {
			n++
		}
	}
	return fmt.Sprintf("%d-%04d", year, n+1), nil
}

func (m *memInvoices) Stats(_ context.Context, _ time.Time) (*entity.InvoiceStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &entity.InvoiceStats{Total: len(m.byID), Revenue: decimal.Zero}, nil
}

type memPsychologists struct {
	mu        sync.Mutex
	byID      map[string]*entity.Psychologist
	preferred []string
}

func newMemPsychologists(list ...*entity.Psychologist) *memPsychologists {
	m := &memPsychologists{byID: map[string]*entity.Psychologist{}}
	for _, p := range list {
		cp := *p
		m.byID[p.ID] = &cp
	}
	return m
}

func (m *memPsychologists) Create(_ context.Context, p *entity.Psychologist) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.byID[p.ID] = &cp
	return nil
}

func (m *memPsychologists) GetByID(_ context.Context, id string) (*entity.Psychologist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *memPsychologists) List(_ context.Context) ([]*entity.Psychologist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*entity.Psychologist, 0, len(m.byID))
	for _, p := range m.byID {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memPsychologists) Update(_ context.Context, p *entity.Psychologist) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[p.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *p
	m.byID[p.ID] = &cp
	return nil
}

func (m *memPsychologists) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, id)
	return nil
}

func (m *memPsychologists) SetPreferred(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return domain.ErrNotFound
	}
	for pid, p := range m.byID {
		p.Preferred = pid == id
	}
	m.preferred = append(m.preferred, id)
	return nil
}

type memPatients struct {
	mu   sync.Mutex
	byID map[string]*entity.Patient
}

func newMemPatients(list ...*entity.Patient) *memPatients {
	m := &memPatients{byID: map[string]*entity.Patient{}}
	for _, p := range list {
		cp := *p
		m.byID[p.ID] = &cp
	}
	return m
}

func (m *memPatients) Create(_ context.Context, p *entity.Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.byID[p.ID] = &cp
	return nil
}

func (m *memPatients) GetByID(_ context.Context, id string) (*entity.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *memPatients) List(_ context.Context, limit, offset int) ([]*entity.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*entity.Patient, 0, len(m.byID))
	for _, p := range m.byID {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memPatients) Search(_ context.Context, query string, limit int) ([]*entity.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Patient
	for _, p := range m.byID {
		if p.LastName == query || p.FirstName == query || p.FiscalCode == query {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memPatients) ListByPsychologist(_ context.Context, _ string) ([]*entity.PatientSummary, error) {
	return []*entity.PatientSummary{}, nil
}

func (m *memPatients) Update(_ context.Context, p *entity.Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[p.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *p
	m.byID[p.ID] = &cp
	return nil
}

func (m *memPatients) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, id)
	return nil
}

type memComuni map[string]string

func (m memComuni) FindByName(_ context.Context, name string) (*entity.Comune, error) {
	prov, ok := m[name]
	if !ok {
		return nil, nil
	}
	return &entity.Comune{Name: name, Province: prov}, nil
}

// txRunner ejecuta fn sobre el mismo repositorio y cuenta las transacciones.
type txRunner struct {
	repo  repository.InvoiceRepository
	calls int
}

func (t *txRunner) RunInvoiceTx(_ context.Context, fn func(repository.InvoiceRepository) error) error {
	t.calls++
	return fn(t.repo)
}

// ─────────────────────────────────────────────────────────────────────────────
// Intermediario, archivo, PDF y exportador
// ─────────────────────────────────────────────────────────────────────────────

type fakeIntermediary struct {
	mu        sync.Mutex
	uploadRes *aruba.UploadResult
	uploadErr error
	status    *aruba.InvoiceStatus
	statusErr error
	notifs    []aruba.Notification
	conn      aruba.ConnectionResult
	env       aruba.EnvironmentInfo
	uploaded  []string
}

func newFakeIntermediary() *fakeIntermediary {
	return &fakeIntermediary{
		conn: aruba.ConnectionResult{Success: true, Message: "ok"},
		env:  aruba.EnvironmentInfo{Environment: "test", BaseURL: "https://demo.example", IsTest: true},
	}
}

func (f *fakeIntermediary) UploadInvoice(_ context.Context, _, filename string) (*aruba.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploaded = append(f.uploaded, filename)
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	if f.uploadRes != nil {
		return f.uploadRes, nil
	}
	return &aruba.UploadResult{Success: true, UploadFilename: filename, Errors: []entity.SDIError{}}, nil
}

func (f *fakeIntermediary) GetInvoiceStatus(_ context.Context, filename string) (*aruba.InvoiceStatus, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return f.status, nil
}

func (f *fakeIntermediary) GetNotifications(_ context.Context, _ string) ([]aruba.Notification, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return f.notifs, nil
}

func (f *fakeIntermediary) TestConnection(_ context.Context) aruba.ConnectionResult { return f.conn }

func (f *fakeIntermediary) EnvironmentInfo() aruba.EnvironmentInfo { return f.env }

type memArchiver struct {
	keys []string
	err  error
}

func (a *memArchiver) Archive(_ context.Context, year int, filename, _, _ string) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	key := fmt.Sprintf("fatture/%d/%s", year, filename)
	a.keys = append(a.keys, key)
	return key, nil
}

type stubRenderer struct{}

func (stubRenderer) GenerateParcella(_ context.Context, inv *entity.Invoice, _ *entity.Psychologist, _ *entity.Patient) ([]byte, error) {
	return []byte("%PDF-" + inv.Number), nil
}

type recordingExporter struct {
	rows []xlsx.RegisterRow
}

func (e *recordingExporter) Export(rows []xlsx.RegisterRow) ([]byte, error) {
	e.rows = rows
	return []byte("xlsx"), nil
}
