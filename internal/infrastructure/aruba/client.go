// Package aruba implementa el cliente REST del intermediario de transmisión
// (Aruba Fatturazione Elettronica) hacia el SDI.
package aruba

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/jhoicas/psicofattura/internal/domain"
	"github.com/jhoicas/psicofattura/internal/domain/entity"
	"github.com/jhoicas/psicofattura/pkg/config"
	"github.com/jhoicas/psicofattura/pkg/logger"
)

// Client cliente del intermediario. Seguro para uso concurrente: el token está protegido por mu.
type Client struct {
	cfg        config.EInvoicingConfig
	httpClient *http.Client
	limiter    RateLimiter
	log        *logger.Logger
	now        func() time.Time

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	tokenExpiry  time.Time
}

// NewClient construye el cliente. Rechaza la construcción si la fatturazione elettronica
// está deshabilitada o, fuera de mock, si faltan credenciales. limiter puede ser nil.
func NewClient(cfg config.EInvoicingConfig, limiter RateLimiter, log *logger.Logger) (*Client, error) {
	if !cfg.Enabled {
		return nil, domain.ErrEInvoicingDisabled
	}
	if !cfg.IsMock() && (cfg.Username == "" || cfg.Password == "") {
		return nil, domain.ErrMissingCredentials
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		log:        log.WithComponent("aruba"),
		now:        time.Now,
	}, nil
}

// ── Autenticación ─────────────────────────────────────────────────────────────

// Authenticate obtiene un access token nuevo.
func (c *Client) Authenticate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authenticateLocked(ctx)
}

func (c *Client) authenticateLocked(ctx context.Context) error {
	if c.cfg.IsMock() {
		now := c.now()
		c.accessToken = fmt.Sprintf("mock_access_token_%d", now.UnixMilli())
		c.refreshToken = "mock_refresh_token"
		c.tokenExpiry = now.Add(30 * time.Minute)
		c.log.Debug().Str("mode", "mock").Msg("autenticación simulada")
		return nil
	}

	payload, err := json.Marshal(map[string]string{"username": c.cfg.Username, "password": c.cfg.Password})
	if err != nil {
		return fmt.Errorf("aruba: serializar credenciales: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.AuthURL+"/auth/signin", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("aruba: crear request auth: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error().Err(err).Msg("autenticación fallida")
		return fmt.Errorf("%w: %v", domain.ErrIntermediaryAuth, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		c.log.Error().Err(err).Msg("lectura de la respuesta de autenticación")
		return fmt.Errorf("%w: leer respuesta: %v", domain.ErrIntermediaryAuth, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Error().Int("status", resp.StatusCode).Msg("autenticación rechazada")
		return fmt.Errorf("%w: %d %s", domain.ErrIntermediaryAuth, resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	var auth AuthResponse
	if err := json.Unmarshal(body, &auth); err != nil {
		return fmt.Errorf("%w: respuesta no válida: %v", domain.ErrIntermediaryAuth, err)
	}
	c.accessToken = auth.AccessToken
	c.refreshToken = auth.RefreshToken
	c.tokenExpiry = c.now().Add(time.Duration(auth.ExpiresIn) * time.Second)
	return nil
}

// ensureAuthenticated renueva el token si falta o expiró y devuelve el vigente.
func (c *Client) ensureAuthenticated(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.accessToken == "" || !c.now().Before(c.tokenExpiry) {
		if err := c.authenticateLocked(ctx); err != nil {
			return "", err
		}
	}
	return c.accessToken, nil
}

// SignOut descarta los tokens.
func (c *Client) SignOut() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken, c.refreshToken = "", ""
	c.tokenExpiry = time.Time{}
}

// ── Cuotas ────────────────────────────────────────────────────────────────────

func (c *Client) allow(ctx context.Context, key string, limit int) error {
	if c.limiter == nil || limit <= 0 {
		return nil
	}
	ok, err := c.limiter.Allow(ctx, key, limit, time.Minute)
	if err != nil {
		// Backend de cuotas caído: no bloquea la transmisión.
		c.log.Warn().Err(err).Str("quota", key).Msg("rate limiter no disponible")
		return nil
	}
	if !ok {
		return fmt.Errorf("%w: %s (%d/min)", domain.ErrRateLimited, key, limit)
	}
	return nil
}

// ── Upload ────────────────────────────────────────────────────────────────────

// UploadInvoice sube el XML. filename vacío => invoice_<ms>.xml.
// Sólo los fallos de autenticación y de cuota se devuelven como error.
func (c *Client) UploadInvoice(ctx context.Context, xml, filename string) (*UploadResult, error) {
	token, err := c.ensureAuthenticated(ctx)
	if err != nil {
		return nil, err
	}
	if filename == "" {
		filename = fmt.Sprintf("invoice_%d.xml", c.now().UnixMilli())
	}
	if c.cfg.IsMock() {
		return c.mockUpload(xml, filename), nil
	}
	if err := c.allow(ctx, QuotaUpload, c.cfg.UploadPerMinute); err != nil {
		return nil, err
	}

	result, err := c.upload(ctx, token, xml, filename)
	if err != nil {
		c.log.Error().Err(err).Str("filename", filename).Msg("upload fallido")
		return &UploadResult{
			Success: false,
			Errors:  []entity.SDIError{{Code: "UPLOAD_ERROR", Description: "Upload failed: " + err.Error()}},
		}, nil
	}
	return result, nil
}

func (c *Client) upload(ctx context.Context, token, xml, filename string) (*UploadResult, error) {
	if len(xml) > MaxFileSize {
		return nil, fmt.Errorf("XML file size (%d bytes) exceeds maximum allowed (%d bytes)", len(xml), MaxFileSize)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	h.Set("Content-Type", "application/xml")
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(part, xml); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/services/invoice/upload", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%d %s - %s", resp.StatusCode, http.StatusText(resp.StatusCode), strings.TrimSpace(string(body)))
	}

	var raw UploadResult
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("respuesta no válida: %w", err)
	}
	if raw.UploadFilename == "" {
		raw.UploadFilename = filename
	}
	if raw.Errors == nil {
		raw.Errors = []entity.SDIError{}
	}
	return &raw, nil
}

// ── Consultas ─────────────────────────────────────────────────────────────────

// GetInvoiceStatus estado del archivo; nil, nil si el intermediario no lo conoce.
func (c *Client) GetInvoiceStatus(ctx context.Context, filename string) (*InvoiceStatus, error) {
	token, err := c.ensureAuthenticated(ctx)
	if err != nil {
		return nil, err
	}
	if c.cfg.IsMock() {
		return c.mockStatus(filename), nil
	}
	if err := c.allow(ctx, QuotaSearch, c.cfg.SearchPerMinute); err != nil {
		return nil, err
	}

	var raw remoteInvoice
	status, err := c.getJSON(ctx, token, "/services/invoice/find/"+url.PathEscape(filename), &raw)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("%w: status check failed: %d %s", domain.ErrTransmission, status, http.StatusText(status))
	}
	return toStatus(raw), nil
}

// ListInvoices archivos de la cuenta. limit <= 0 => 50.
func (c *Client) ListInvoices(ctx context.Context, limit, offset int) ([]*InvoiceStatus, error) {
	token, err := c.ensureAuthenticated(ctx)
	if err != nil {
		return nil, err
	}
	if c.cfg.IsMock() {
		return []*InvoiceStatus{}, nil
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	if err := c.allow(ctx, QuotaSearch, c.cfg.SearchPerMinute); err != nil {
		return nil, err
	}

	var data struct {
		Invoices []remoteInvoice `json:"invoices"`
	}
	status, err := c.getJSON(ctx, token, fmt.Sprintf("/services/invoice/list?limit=%d&offset=%d", limit, offset), &data)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("%w: list invoices failed: %d %s", domain.ErrTransmission, status, http.StatusText(status))
	}
	out := make([]*InvoiceStatus, 0, len(data.Invoices))
	for _, r := range data.Invoices {
		out = append(out, toStatus(r))
	}
	return out, nil
}

// GetNotifications notificaciones SDI del archivo. Cualquier fallo que no sea de
// autenticación devuelve una lista vacía.
func (c *Client) GetNotifications(ctx context.Context, filename string) ([]Notification, error) {
	token, err := c.ensureAuthenticated(ctx)
	if err != nil {
		return nil, err
	}
	if c.cfg.IsMock() {
		return c.mockNotifications(filename), nil
	}
	if err := c.allow(ctx, QuotaSearch, c.cfg.SearchPerMinute); err != nil {
		return nil, err
	}

	var data struct {
		Notifications []Notification `json:"notifications"`
	}
	status, err := c.getJSON(ctx, token, "/services/invoice/notifications/"+url.PathEscape(filename), &data)
	if err != nil || status < 200 || status > 299 {
		if err != nil {
			c.log.Error().Err(err).Str("filename", filename).Msg("notificaciones no disponibles")
		}
		return []Notification{}, nil
	}
	if data.Notifications == nil {
		return []Notification{}, nil
	}
	return data.Notifications, nil
}

// TestConnection verifica credenciales y conectividad (auth + list limit=1).
func (c *Client) TestConnection(ctx context.Context) ConnectionResult {
	if c.cfg.IsMock() {
		return ConnectionResult{Success: true, Message: "Successfully connected to mock Aruba environment for testing"}
	}
	if err := c.Authenticate(ctx); err != nil {
		return ConnectionResult{Message: "Connection test failed: " + err.Error()}
	}
	c.mu.Lock()
	token := c.accessToken
	c.mu.Unlock()

	status, err := c.getJSON(ctx, token, "/services/invoice/list?limit=1", nil)
	if err != nil {
		return ConnectionResult{Message: "Connection test failed: " + err.Error()}
	}
	if status < 200 || status > 299 {
		return ConnectionResult{Message: fmt.Sprintf("Connection test failed: %d %s", status, http.StatusText(status))}
	}
	return ConnectionResult{Success: true, Message: fmt.Sprintf("Successfully connected to Aruba %s environment", c.cfg.Environment)}
}

// EnvironmentInfo ambiente, URL base y si es el ambiente demo.
func (c *Client) EnvironmentInfo() EnvironmentInfo {
	return EnvironmentInfo{Environment: c.cfg.Environment, BaseURL: c.cfg.BaseURL, IsTest: c.cfg.IsTest()}
}

// IsTestEnvironment indica si se usa el ambiente demo.
func (c *Client) IsTestEnvironment() bool { return c.cfg.IsTest() }

// getJSON hace GET autenticado y decodifica la respuesta 2xx en out (si no es nil).
// Devuelve el código HTTP; los errores son sólo de transporte o decodificación.
func (c *Client) getJSON(ctx context.Context, token, path string, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return 0, fmt.Errorf("aruba: crear request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, fmt.Errorf("%w: timeout o cancelación: %v", domain.ErrTransmission, ctx.Err())
		}
		return 0, fmt.Errorf("%w: %v", domain.ErrTransmission, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("%w: leer respuesta: %v", domain.ErrTransmission, err)
	}
	if out == nil || resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return resp.StatusCode, fmt.Errorf("%w: respuesta no válida: %v", domain.ErrTransmission, err)
	}
	return resp.StatusCode, nil
}

func toStatus(r remoteInvoice) *InvoiceStatus {
	errs := make([]entity.SDIError, 0, len(r.Errors))
	for _, e := range r.Errors {
		if e.Severity == "" {
			e.Severity = entity.SeverityError
		}
		errs = append(errs, e)
	}
	notifications := r.Notifications
	if notifications == nil {
		notifications = []Notification{}
	}
	return &InvoiceStatus{
		Filename:       r.Filename,
		SDIID:          r.SDIID,
		Status:         MapStatus(r.Status),
		SubmissionDate: r.SubmissionDate,
		LastUpdate:     r.LastUpdate,
		Errors:         errs,
		Notifications:  notifications,
	}
}

// MapStatus normaliza el estado del intermediario; desconocido => pending.
func MapStatus(s string) string {
	if v, ok := statusMap[strings.ToUpper(s)]; ok {
		return v
	}
	return entity.SDIStatusPending
}

// IsAuthError indica si err proviene de credenciales rechazadas.
func IsAuthError(err error) bool {
	return errors.Is(err, domain.ErrIntermediaryAuth)
}
