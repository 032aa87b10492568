package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/psicofattura/internal/application/dto"
	"github.com/jhoicas/psicofattura/internal/domain"
	"github.com/jhoicas/psicofattura/internal/domain/entity"
	dfatturapa "github.com/jhoicas/psicofattura/internal/domain/fatturapa"
	"github.com/jhoicas/psicofattura/internal/domain/repository"
	"github.com/jhoicas/psicofattura/internal/infrastructure/aruba"
	"github.com/jhoicas/psicofattura/internal/infrastructure/fatturapa"
	"github.com/jhoicas/psicofattura/pkg/config"
	"github.com/jhoicas/psicofattura/pkg/logger"
)

// isoLayout formato de las fechas devueltas al cliente.
const isoLayout = "2006-01-02T15:04:05.000Z"

// Acciones de POST /api/fattura-elettronica/status/:filename.
const (
	ActionCheckStatus      = "check-status"
	ActionGetNotifications = "get-notifications"
)

// EInvoiceError rechazo de un flujo de fatturazione elettronica. Kind es el sentinel de
// domain que decide el código HTTP; Message y Details son el cuerpo que ve el cliente.
type EInvoiceError struct {
	Kind    error
	Message string
	Details any
}

func (e *EInvoiceError) Error() string {
	if e.Details != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Details)
	}
	return e.Message
}

func (e *EInvoiceError) Unwrap() error { return e.Kind }

func reject(kind error, message string, details any) error {
	return &EInvoiceError{Kind: kind, Message: message, Details: details}
}

// EInvoiceService orquesta la fatturazione elettronica:
//
//	tríada → FatturaPA XML → validación → hash/filename → (archivo S3) → intermediario → estado SDI
//
// Acepta los datos en línea (sin persistencia) o identificadores de registros guardados;
// en el segundo caso cada paso queda reflejado en la factura y en su historial SDI.
type EInvoiceService struct {
	cfg           config.EInvoicingConfig
	generator     DocumentGenerator
	intermediary  Intermediary // nil si la fatturazione elettronica está deshabilitada
	invoices      repository.InvoiceRepository
	psychologists repository.PsychologistRepository
	patients      repository.PatientRepository
	tx            InvoiceTxRunner // opcional
	archiver      Archiver        // opcional
	log           *logger.Logger
	now           func() time.Time
}

// NewEInvoiceService construye el orquestador. intermediary, tx y archiver pueden ser nil.
func NewEInvoiceService(
	cfg config.EInvoicingConfig,
	generator DocumentGenerator,
	intermediary Intermediary,
	invoices repository.InvoiceRepository,
	psychologists repository.PsychologistRepository,
	patients repository.PatientRepository,
	tx InvoiceTxRunner,
	archiver Archiver,
	log *logger.Logger,
) *EInvoiceService {
	return &EInvoiceService{
		cfg:           cfg,
		generator:     generator,
		intermediary:  intermediary,
		invoices:      invoices,
		psychologists: psychologists,
		patients:      patients,
		tx:            tx,
		archiver:      archiver,
		log:           log.WithComponent("einvoice"),
		now:           time.Now,
	}
}

// WithClock fija el reloj (tests).
func (s *EInvoiceService) WithClock(now func() time.Time) *EInvoiceService {
	cp := *s
	cp.now = now
	return &cp
}

// Enabled indica si FEATURE_ELECTRONIC_INVOICING está activo.
func (s *EInvoiceService) Enabled() bool { return s != nil && s.cfg.Enabled }

// ═══════════════════════════════════════════════════════════════════════════════
// Generación
// ═══════════════════════════════════════════════════════════════════════════════

// GenerateXML produce el documento FatturaPA. Con InvoiceID carga la tríada guardada y
// adjunta el XML a la factura (estado SDI pending).
func (s *EInvoiceService) GenerateXML(ctx context.Context, req dto.GenerateXMLRequest) (*dto.GenerateXMLResponse, error) {
	if err := s.requireEnabled(); err != nil {
		return nil, err
	}
	inv, psy, patient := req.Invoice, req.Psychologist, req.Patient
	stored := req.InvoiceID != ""
	if stored {
		var err error
		inv, psy, patient, err = loadTriple(ctx, s.invoices, s.psychologists, s.patients, req.InvoiceID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, reject(domain.ErrNotFound, "Invoice not found", nil)
		}
		if err != nil {
			return nil, err
		}
	}
	if inv == nil || psy == nil || patient == nil {
		return nil, reject(domain.ErrMissingInput, domain.ErrMissingInput.Error(), nil)
	}
	if !psy.EInvoicingEnabled {
		return nil, reject(domain.ErrEInvoicingNotEnabledForIssuer, domain.ErrEInvoicingNotEnabledForIssuer.Error(), nil)
	}

	doc, err := s.generator.Generate(fatturapa.BuildInput{
		Invoice:      inv,
		Psychologist: psy,
		Patient:      patient,
		Options: fatturapa.BuildOptions{
			ProgressiveNumber:        req.ProgressiveNumber,
			IsAmendment:              req.IsAmendment || inv.IsCreditNote(),
			OriginalInvoiceReference: inv.OriginalInvoiceNumber,
		},
	})
	if err != nil {
		return nil, s.generationError(err, "XML validation failed")
	}
	s.log.Info().Str("invoice", inv.Number).Str("filename", doc.Filename).Int("size", doc.Size).
		Str("step", "generate").Msg("FatturaPA generata")

	if stored {
		if err := s.attach(ctx, inv.ID, doc); err != nil {
			return nil, err
		}
	}
	s.archive(ctx, inv, doc)

	return &dto.GenerateXMLResponse{
		Success:    true,
		XMLData:    doc.XML,
		XMLHash:    doc.Hash,
		Filename:   doc.Filename,
		Size:       doc.Size,
		Validation: toValidation(doc.Validation),
	}, nil
}

// attach guarda XML, hash y nombre en la factura y registra el paso a pending.
func (s *EInvoiceService) attach(ctx context.Context, id string, doc *fatturapa.GeneratedDocument) error {
	now := s.now()
	pending := entity.SDIStatusPending
	return s.runTx(ctx, func(invoices repository.InvoiceRepository) error {
		if err := invoices.AttachXML(ctx, id, doc.XML, doc.Hash, doc.Filename); err != nil {
			return err
		}
		if err := invoices.UpdateSDI(ctx, id, entity.SDIUpdate{Status: &pending, Errors: []entity.SDIError{}}); err != nil {
			return err
		}
		return invoices.AppendSDIHistory(ctx, id, entity.SDIHistoryEntry{
			Date:   now,
			Status: pending,
			Note:   "XML generato: " + doc.Filename,
		})
	})
}

// ═══════════════════════════════════════════════════════════════════════════════
// Transmisión
// ═══════════════════════════════════════════════════════════════════════════════

// Send sube el XML al intermediario. Con InvoiceID la factura pasa a sent; un rechazo
// de la subida sólo añade los errores al historial, el XML guardado no cambia.
func (s *EInvoiceService) Send(ctx context.Context, req dto.SendRequest) (*dto.SendResponse, error) {
	if err := s.requireIntermediary(); err != nil {
		return nil, err
	}
	if req.XMLData == "" || req.Filename == "" {
		return nil, reject(domain.ErrMissingInput, "Missing required data: xmlData or filename", nil)
	}

	result, err := s.intermediary.UploadInvoice(ctx, req.XMLData, req.Filename)
	if err != nil {
		return nil, s.intermediaryError(err)
	}
	now := s.now()
	if !result.Success {
		s.log.Warn().Str("filename", req.Filename).Int("errors", len(result.Errors)).
			Str("step", "upload").Msg("upload rifiutato")
		if req.InvoiceID != "" {
			s.recordUploadFailure(ctx, req.InvoiceID, result.Errors, now)
		}
		return nil, reject(domain.ErrUploadRejected, domain.ErrUploadRejected.Error(), nonNilErrors(result.Errors))
	}

	uploaded := result.UploadFilename
	if uploaded == "" {
		uploaded = req.Filename
	}
	if req.InvoiceID != "" {
		if err := s.markSent(ctx, req.InvoiceID, uploaded, now); err != nil {
			// La subida ya ocurrió: el cliente debe recibir el resultado real.
			s.log.Error().Err(err).Str("invoice_id", req.InvoiceID).Str("step", "mark-sent").
				Msg("no se pudo registrar el envío")
		}
	}

	env := s.intermediary.EnvironmentInfo()
	target := "production"
	if env.IsTest {
		target = "test"
	}
	s.log.Info().Str("filename", uploaded).Str("environment", env.Environment).Str("step", "upload").Msg("fattura inviata")
	return &dto.SendResponse{
		Success:        true,
		UploadFilename: uploaded,
		SubmissionDate: now.UTC().Format(isoLayout),
		Environment:    env.Environment,
		IsTest:         env.IsTest,
		Message:        fmt.Sprintf("Invoice successfully uploaded to Aruba %s environment", target),
	}, nil
}

func (s *EInvoiceService) markSent(ctx context.Context, id, uploaded string, now time.Time) error {
	sent := entity.SDIStatusSent
	return s.runTx(ctx, func(invoices repository.InvoiceRepository) error {
		upd := entity.SDIUpdate{
			Status:         &sent,
			UploadFilename: &uploaded,
			Errors:         []entity.SDIError{},
			SubmissionDate: &now,
		}
		if err := invoices.UpdateSDI(ctx, id, upd); err != nil {
			return err
		}
		return invoices.AppendSDIHistory(ctx, id, entity.SDIHistoryEntry{
			Date:   now,
			Status: sent,
			Note:   "Inviata all'intermediario come " + uploaded,
		})
	})
}

func (s *EInvoiceService) recordUploadFailure(ctx context.Context, id string, errs []entity.SDIError, now time.Time) {
	err := s.runTx(ctx, func(invoices repository.InvoiceRepository) error {
		current, err := invoices.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrNotFound
		}
		status := current.SDIStatus
		if status == "" {
			status = entity.SDIStatusPending
		}
		if err := invoices.UpdateSDI(ctx, id, entity.SDIUpdate{Errors: nonNilErrors(errs)}); err != nil {
			return err
		}
		return invoices.AppendSDIHistory(ctx, id, entity.SDIHistoryEntry{
			Date:   now,
			Status: status,
			Note:   "Upload rifiutato dall'intermediario",
			Errors: errs,
		})
	})
	if err != nil {
		s.log.Error().Err(err).Str("invoice_id", id).Str("step", "upload-failure").Msg("no se pudo registrar el rechazo")
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// Estado
// ═══════════════════════════════════════════════════════════════════════════════

// Status consulta el estado del archivo en el intermediario y sincroniza la factura
// subida con ese nombre, si existe.
func (s *EInvoiceService) Status(ctx context.Context, filename string) (*dto.StatusResponse, error) {
	if err := s.requireIntermediary(); err != nil {
		return nil, err
	}
	if filename == "" {
		return nil, reject(domain.ErrInvalidInput, "Missing filename parameter", nil)
	}
	st, err := s.intermediary.GetInvoiceStatus(ctx, filename)
	if err != nil {
		return nil, s.intermediaryError(err)
	}
	if st == nil {
		return nil, reject(domain.ErrNotFound, "Invoice not found in Aruba system", nil)
	}
	s.syncStatus(ctx, filename, st)

	return &dto.StatusResponse{
		Success:        true,
		Status:         st.Status,
		SDIID:          st.SDIID,
		SubmissionDate: st.SubmissionDate,
		LastUpdate:     st.LastUpdate,
		Errors:         nonNilErrors(st.Errors),
		Notifications:  toNotifications(st.Notifications),
		Environment:    s.intermediary.EnvironmentInfo().Environment,
	}, nil
}

// StatusAction despacha las acciones sobre un archivo subido.
func (s *EInvoiceService) StatusAction(ctx context.Context, filename, action string) (any, error) {
	switch action {
	case ActionCheckStatus:
		return s.Status(ctx, filename)
	case ActionGetNotifications:
		return s.Notifications(ctx, filename)
	default:
		return nil, reject(domain.ErrInvalidInput, "Unknown action: "+action, nil)
	}
}

// Notifications notificaciones SDI del archivo.
func (s *EInvoiceService) Notifications(ctx context.Context, filename string) (*dto.NotificationsResponse, error) {
	if err := s.requireIntermediary(); err != nil {
		return nil, err
	}
	if filename == "" {
		return nil, reject(domain.ErrInvalidInput, "Missing filename parameter", nil)
	}
	list, err := s.intermediary.GetNotifications(ctx, filename)
	if err != nil {
		return nil, s.intermediaryError(err)
	}
	return &dto.NotificationsResponse{Success: true, Notifications: toNotifications(list)}, nil
}

// syncStatus vuelca el estado remoto en la factura; sólo un cambio de estado añade historial.
// Los fallos se registran en el log: la consulta remota ya respondió.
func (s *EInvoiceService) syncStatus(ctx context.Context, filename string, st *aruba.InvoiceStatus) {
	if s.invoices == nil {
		return
	}
	inv, err := s.invoices.GetByUploadFilename(ctx, filename)
	if err != nil {
		s.log.Error().Err(err).Str("filename", filename).Str("step", "sync-status").Msg("búsqueda de factura fallida")
		return
	}
	if inv == nil {
		return
	}

	now := s.now()
	status := st.Status
	upd := entity.SDIUpdate{Status: &status, Errors: nonNilErrors(st.Errors), LastCheck: &now}
	if st.SDIID != "" {
		upd.SDIID = &st.SDIID
	}
	err = s.runTx(ctx, func(invoices repository.InvoiceRepository) error {
		if err := invoices.UpdateSDI(ctx, inv.ID, upd); err != nil {
			return err
		}
		if inv.SDIStatus == status {
			return nil
		}
		return invoices.AppendSDIHistory(ctx, inv.ID, entity.SDIHistoryEntry{
			Date:   now,
			Status: status,
			Note:   fmt.Sprintf("Stato SDI aggiornato da %q a %q", inv.SDIStatus, status),
			Errors: st.Errors,
		})
	})
	if err != nil {
		s.log.Error().Err(err).Str("invoice_id", inv.ID).Str("step", "sync-status").Msg("no se pudo actualizar el estado SDI")
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// Nota de crédito
// ═══════════════════════════════════════════════════════════════════════════════

// Amend emite la nota de crédito de una factura. El envío automático sólo ocurre con
// AutoSend, factura original electrónica y estado SDI distinto de pending; su fallo se
// registra sin interrumpir la respuesta.
func (s *EInvoiceService) Amend(ctx context.Context, req dto.AmendRequest) (*dto.AmendResponse, error) {
	if err := s.requireEnabled(); err != nil {
		return nil, err
	}
	original, psy, patient := req.OriginalInvoice, req.Psychologist, req.Patient
	stored := req.OriginalInvoiceID != ""
	if stored {
		var err error
		original, psy, patient, err = loadTriple(ctx, s.invoices, s.psychologists, s.patients, req.OriginalInvoiceID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, reject(domain.ErrNotFound, "Original invoice not found", nil)
		}
		if err != nil {
			return nil, err
		}
	}
	if original == nil || psy == nil || patient == nil || req.AmendmentData == nil {
		return nil, reject(domain.ErrMissingInput, "Missing required data", nil)
	}
	if !psy.EInvoicingEnabled {
		return nil, reject(domain.ErrEInvoicingNotEnabledForIssuer, domain.ErrEInvoicingNotEnabledForIssuer.Error(), nil)
	}

	now := s.now()
	cn, err := dfatturapa.ToCreditNote(original, *req.AmendmentData, now)
	if err != nil {
		return nil, reject(domain.ErrInvalidInput, "Invalid amendment data", err.Error())
	}
	doc, err := s.generator.Generate(fatturapa.BuildInput{
		Invoice:      cn,
		Psychologist: psy,
		Patient:      patient,
		Options:      fatturapa.BuildOptions{IsAmendment: true, OriginalInvoiceReference: original.Number},
	})
	if err != nil {
		return nil, s.generationError(err, "Credit note XML validation failed")
	}
	cn.XMLData, cn.XMLHash, cn.UploadFilename = doc.XML, doc.Hash, doc.Filename
	cn.Electronic = original.Electronic
	cn.SDIStatus = entity.SDIStatusPending

	var upload *dto.UploadSummary
	if req.AutoSend && original.Electronic && original.SDIStatus != entity.SDIStatusPending && s.intermediary != nil {
		result, err := s.intermediary.UploadInvoice(ctx, doc.XML, doc.Filename)
		switch {
		case err != nil:
			s.log.Error().Err(err).Str("filename", doc.Filename).Str("step", "amend-upload").Msg("envío automático fallido")
		default:
			upload = &dto.UploadSummary{Success: result.Success, Errors: nonNilErrors(result.Errors)}
			if result.Success {
				cn.SDIStatus = entity.SDIStatusSent
				cn.SDISubmissionDate = &now
				if result.UploadFilename != "" {
					cn.UploadFilename = result.UploadFilename
				}
			}
		}
	}

	if stored {
		if err := s.persistCreditNote(ctx, cn, now); err != nil {
			return nil, err
		}
	}
	s.archive(ctx, cn, doc)
	s.log.Info().Str("original", original.Number).Str("filename", cn.UploadFilename).Str("sdi_status", cn.SDIStatus).
		Str("step", "amend").Msg("nota di credito generata")

	return &dto.AmendResponse{
		Success:    true,
		CreditNote: dto.CreditNote{Invoice: *cn, OriginalInvoiceReference: original.Number},
		Upload:     upload,
		Validation: toValidation(doc.Validation),
	}, nil
}

func (s *EInvoiceService) persistCreditNote(ctx context.Context, cn *entity.Invoice, now time.Time) error {
	cn.ID = uuid.New().String()
	cn.CreatedAt, cn.UpdatedAt = now, now
	entry := entity.SDIHistoryEntry{
		Date:   now,
		Status: cn.SDIStatus,
		Note:   "Nota di credito per fattura " + cn.OriginalInvoiceNumber,
	}
	return s.runTx(ctx, func(invoices repository.InvoiceRepository) error {
		if err := invoices.Create(ctx, cn); err != nil {
			return err
		}
		if err := invoices.AppendSDIHistory(ctx, cn.ID, entry); err != nil {
			return err
		}
		cn.SDIHistory = append(cn.SDIHistory, entry)
		return nil
	})
}

// ═══════════════════════════════════════════════════════════════════════════════
// Conexión
// ═══════════════════════════════════════════════════════════════════════════════

// TestConnection verifica credenciales y conectividad con el intermediario. Nunca falla:
// el resultado viaja en la respuesta.
func (s *EInvoiceService) TestConnection(ctx context.Context) *dto.ConnectionTestResponse {
	if !s.cfg.Enabled {
		return &dto.ConnectionTestResponse{
			Success:       false,
			Error:         domain.ErrEInvoicingDisabled.Error(),
			Configuration: dto.ConnectionConfiguration{Enabled: false, Environment: "none"},
		}
	}
	ts := s.now().UTC().Format(isoLayout)
	if s.intermediary == nil {
		return &dto.ConnectionTestResponse{
			Success: false,
			Error:   "Connection test failed",
			Details: domain.ErrMissingCredentials.Error(),
			Configuration: dto.ConnectionConfiguration{
				Enabled:     true,
				Environment: s.cfg.Environment,
				BaseURL:     s.cfg.BaseURL,
			},
			Timestamp: ts,
		}
	}

	result := s.intermediary.TestConnection(ctx)
	env := s.intermediary.EnvironmentInfo()
	return &dto.ConnectionTestResponse{
		Success: result.Success,
		Message: result.Message,
		Configuration: dto.ConnectionConfiguration{
			Enabled:     true,
			Environment: env.Environment,
			BaseURL:     env.BaseURL,
			IsTest:      &env.IsTest,
		},
		Timestamp: ts,
	}
}

// ── Auxiliares ────────────────────────────────────────────────────────────────

func (s *EInvoiceService) requireEnabled() error {
	if !s.cfg.Enabled {
		return reject(domain.ErrEInvoicingDisabled, domain.ErrEInvoicingDisabled.Error(), nil)
	}
	return nil
}

func (s *EInvoiceService) requireIntermediary() error {
	if err := s.requireEnabled(); err != nil {
		return err
	}
	if s.intermediary == nil {
		return reject(domain.ErrEInvoicingDisabled, domain.ErrEInvoicingDisabled.Error(), domain.ErrMissingCredentials.Error())
	}
	return nil
}

func (s *EInvoiceService) runTx(ctx context.Context, fn func(repository.InvoiceRepository) error) error {
	if s.tx != nil {
		return s.tx.RunInvoiceTx(ctx, fn)
	}
	if s.invoices == nil {
		return fmt.Errorf("billing: repositorio de facturas no configurado")
	}
	return fn(s.invoices)
}

// archive guarda el XML en el archivo; un fallo no invalida la generación.
func (s *EInvoiceService) archive(ctx context.Context, inv *entity.Invoice, doc *fatturapa.GeneratedDocument) {
	if s.archiver == nil {
		return
	}
	year := inv.Date.Year()
	if inv.Date.IsZero() {
		year = s.now().Year()
	}
	key, err := s.archiver.Archive(ctx, year, doc.Filename, doc.XML, doc.Hash)
	if err != nil {
		s.log.Error().Err(err).Str("filename", doc.Filename).Str("step", "archive").Msg("archiviazione fallita")
		return
	}
	s.log.Debug().Str("key", key).Str("step", "archive").Msg("XML archiviato")
}

func (s *EInvoiceService) generationError(err error, message string) error {
	var verr *fatturapa.ValidationError
	if errors.As(err, &verr) {
		return reject(domain.ErrXMLValidation, message, verr.Errors)
	}
	return fmt.Errorf("generate xml: %w", err)
}

func (s *EInvoiceService) intermediaryError(err error) error {
	switch {
	case errors.Is(err, domain.ErrIntermediaryAuth):
		return reject(domain.ErrIntermediaryAuth, "Authentication failed",
			"Check your Aruba API credentials in environment configuration")
	case errors.Is(err, domain.ErrRateLimited):
		return reject(domain.ErrRateLimited, "Aruba rate limit exceeded, retry later", nil)
	default:
		return err
	}
}

func toValidation(v fatturapa.ValidationResult) dto.Validation {
	errs := v.Errors
	if errs == nil {
		errs = []string{}
	}
	return dto.Validation{Valid: v.Valid, Errors: errs}
}

func toNotifications(list []aruba.Notification) []dto.Notification {
	out := make([]dto.Notification, 0, len(list))
	for _, n := range list {
		out = append(out, dto.Notification{Type: n.Type, Date: n.Date, Description: n.Description})
	}
	return out
}

func nonNilErrors(errs []entity.SDIError) []entity.SDIError {
	if errs == nil {
		return []entity.SDIError{}
	}
	return errs
}
