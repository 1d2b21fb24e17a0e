package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"lawyer_site_go/config"
	"lawyer_site_go/metrics"
	"lawyer_site_go/middleware"
	"lawyer_site_go/services"
	"lawyer_site_go/services/contactform"
	"lawyer_site_go/services/whatsapp"
	"lawyer_site_go/templates/partials"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	msgInvalidData    = "Datos inválidos"
	msgBadRequest     = "Solicitud no válida"
	msgCaptchaFailed  = "Verificación CAPTCHA fallida"
	msgSendFailed     = "Error al enviar el email"
	msgInternalError  = "Error interno del servidor"
	msgConfigError    = "Error obteniendo configuración"
	msgInquirySuccess = "Consulta enviada exitosamente"
	msgTooFast        = "Por favor, tómese un momento para completar el formulario"

	defaultSendTimeout = 15 * time.Second
	// forms submitted sooner than this after rendering are treated as bots
	minFillTime        = 3 * time.Second
)

// contactRequest is the body of POST /api/send-email. Honeypot (or its
// older name, website) is a field real visitors never see; Timestamp is the
// Unix time in milliseconds when the form was rendered.
type contactRequest struct {
	Nombre       string `json:"nombre" form:"nombre"`
	Apellido     string `json:"apellido" form:"apellido"`
	Empresa      string `json:"empresa" form:"empresa"`
	Email        string `json:"email" form:"email"`
	Telefono     string `json:"telefono" form:"telefono"`
	AreaConsulta string `json:"areaConsulta" form:"areaConsulta"`
	Mensaje      string `json:"mensaje" form:"mensaje"`

	Honeypot  string `json:"honeypot" form:"honeypot"`
	Website   string `json:"website" form:"website"`
	Timestamp int64  `json:"timestamp" form:"timestamp"`
	Turnstile string `json:"cf-turnstile-response" form:"cf-turnstile-response"`
}

func (r contactRequest) form() contactform.Form {
	return contactform.Form{
		FirstName:   r.Nombre,
		LastName:    r.Apellido,
		Company:     r.Empresa,
		Email:       r.Email,
		Phone:       r.Telefono,
		InquiryArea: r.AreaConsulta,
		Message:     r.Mensaje,
	}
}

type sendEmailResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	EmailID     string `json:"emailId,omitempty"`
	WhatsAppURL string `json:"whatsappUrl"`
}

type errorResponse struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// fieldIssue mirrors one validation problem: path holds the request key.
type fieldIssue struct {
	Path    []string `json:"path"`
	Message string   `json:"message"`
}

// PublicConfig is the body of GET /api/config.
type PublicConfig struct {
	WhatsAppNumber string `json:"whatsappNumber"`
	ContactEmail   string `json:"contactEmail"`
}

type captchaVerifier func(ctx context.Context, token, secret, ip string) (bool, error)

// ContactHandler serves the contact endpoints.
type ContactHandler struct {
	mailer   services.Mailer
	recorder *services.DeliveryRecorder
	metrics  *metrics.ContactMetrics
	log      *zap.SugaredLogger

	contactEmail    string
	whatsappNumber  string
	turnstileSecret string
	siteName        string
	sendTimeout     time.Duration

	now           func() time.Time
	verifyCaptcha captchaVerifier
	publicConfig  func() (PublicConfig, error)
}

// NewContactHandler wires the handler. recorder and m may be nil.
func NewContactHandler(cfg *config.Config, mailer services.Mailer, recorder *services.DeliveryRecorder, m *metrics.ContactMetrics, log *zap.SugaredLogger) *ContactHandler {
	h := &ContactHandler{
		mailer:          mailer,
		recorder:        recorder,
		metrics:         m,
		log:             log,
		contactEmail:    orDefault(cfg.ContactEmail, config.DefaultContactEmail),
		whatsappNumber:  orDefault(cfg.WhatsAppNumber, config.DefaultWhatsAppNumber),
		turnstileSecret: cfg.TurnstileSecretKey,
		siteName:        siteName(cfg.AppURL),
		sendTimeout:     defaultSendTimeout,
		now:             time.Now,
		verifyCaptcha:   services.VerifyTurnstileToken,
	}
	h.publicConfig = func() (PublicConfig, error) {
		return PublicConfig{WhatsAppNumber: h.whatsappNumber, ContactEmail: h.contactEmail}, nil
	}
	return h
}

// SendEmail handles POST /api/send-email
func (h *ContactHandler) SendEmail(c echo.Context) error {
	var req contactRequest
	if err := c.Bind(&req); err != nil {
		h.metrics.ObserveSubmission(metrics.OutcomeInvalid)
		return h.respondError(c, http.StatusBadRequest, msgInvalidData, nil)
	}

	if req.Honeypot != "" || req.Website != "" {
		h.log.Warnw("honeypot field filled", "ip", c.RealIP(), "user_agent", c.Request().UserAgent())
		h.metrics.ObserveSubmission(metrics.OutcomeBlocked)
		return h.respondError(c, http.StatusBadRequest, msgBadRequest, nil)
	}

	if req.Timestamp > 0 {
		if age := h.now().Sub(time.UnixMilli(req.Timestamp)); age < minFillTime {
			h.log.Warnw("form submitted too fast", "ip", c.RealIP(), "age", age)
			h.metrics.ObserveSubmission(metrics.OutcomeBlocked)
			return h.respondError(c, http.StatusBadRequest, msgTooFast, nil)
		}
	}

	if h.turnstileSecret != "" {
		ok, err := h.verifyCaptcha(c.Request().Context(), req.Turnstile, h.turnstileSecret, c.RealIP())
		if err != nil || !ok {
			h.log.Warnw("turnstile verification failed", "error", err, "ip", c.RealIP())
			h.metrics.ObserveSubmission(metrics.OutcomeBlocked)
			return h.respondError(c, http.StatusBadRequest, msgCaptchaFailed, nil)
		}
	}

	inquiry, err := contactform.Validate(req.form())
	if err != nil {
		var ve *contactform.ValidationError
		if !errors.As(err, &ve) {
			return h.internalError(c, err)
		}
		h.metrics.ObserveSubmission(metrics.OutcomeInvalid)
		if middleware.IsHTMX(c) {
			return middleware.RenderPartial(c, http.StatusBadRequest, partials.FieldErrors(msgInvalidData, ve.Errors))
		}
		return c.JSON(http.StatusBadRequest, errorResponse{Error: msgInvalidData, Details: fieldIssues(ve.Errors)})
	}

	email, err := services.BuildInquiryEmail(inquiry, services.InquiryMeta{
		ClientIP:       c.RealIP(),
		ReceivedAt:     h.now(),
		WhatsAppNumber: h.whatsappNumber,
		SiteName:       h.siteName,
	}, h.contactEmail)
	if err != nil {
		return h.internalError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.sendTimeout)
	defer cancel()

	start := time.Now()
	id, sendErr := h.mailer.Send(ctx, email)
	h.metrics.ObserveSend(h.mailer.Provider(), sendErr == nil, time.Since(start).Seconds())
	h.recorder.Record(services.DeliveryAttempt{
		Inquiry:   inquiry,
		Provider:  h.mailer.Provider(),
		MessageID: id,
		Err:       sendErr,
		IPAddress: c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	})

	if sendErr != nil {
		h.log.Errorw("failed to send inquiry email", append(services.InquiryLogFields(inquiry), "error", sendErr)...)
		h.metrics.ObserveSubmission(metrics.OutcomeSendFailed)
		return h.respondError(c, http.StatusInternalServerError, msgSendFailed, sendErr.Error())
	}

	h.log.Infow("inquiry delivered", append(services.InquiryLogFields(inquiry), "email_id", id)...)
	h.metrics.ObserveSubmission(metrics.OutcomeDelivered)

	waURL := whatsapp.Link(h.whatsappNumber,
		whatsapp.InquiryGreeting(inquiry.FirstName, inquiry.Company, inquiry.InquiryArea, inquiry.Message))

	if middleware.IsHTMX(c) {
		return middleware.RenderPartial(c, http.StatusOK, partials.ContactSuccess(msgInquirySuccess, waURL))
	}
	return c.JSON(http.StatusOK, sendEmailResponse{
		Success:     true,
		Message:     msgInquirySuccess,
		EmailID:     id,
		WhatsAppURL: waURL,
	})
}

// Config handles GET /api/config
func (h *ContactHandler) Config(c echo.Context) error {
	pc, err := h.publicConfig()
	if err != nil {
		h.log.Errorw("failed to build public config", "error", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: msgConfigError})
	}
	return c.JSON(http.StatusOK, pc)
}

// Healthz handles GET /healthz
func Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *ContactHandler) respondError(c echo.Context, status int, msg string, details interface{}) error {
	if middleware.IsHTMX(c) {
		return middleware.RenderPartial(c, status, partials.ErrorBanner(msg))
	}
	return c.JSON(status, errorResponse{Error: msg, Details: details})
}

func (h *ContactHandler) internalError(c echo.Context, err error) error {
	h.log.Errorw("contact endpoint failed", "error", err)
	h.metrics.ObserveSubmission(metrics.OutcomeInternalFail)
	return h.respondError(c, http.StatusInternalServerError, msgInternalError, nil)
}

func fieldIssues(errs contactform.Errors) []fieldIssue {
	issues := make([]fieldIssue, 0, len(errs))
	for _, f := range errs.Fields() {
		key := f.JSONKey()
		if key == "" {
			key = string(f)
		}
		issues = append(issues, fieldIssue{Path: []string{key}, Message: errs[f]})
	}
	return issues
}

func siteName(appURL string) string {
	u, err := url.Parse(appURL)
	if err != nil || u.Host == "" {
		return appURL
	}
	return u.Hostname()
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
