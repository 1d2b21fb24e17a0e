package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"lawyer_site_go/config"
	"lawyer_site_go/metrics"
	"lawyer_site_go/services"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap/zaptest"
)

// fakeMailer records sent emails and returns a canned id or error.
type fakeMailer struct {
	mu    sync.Mutex
	sent  []*services.Email
	id    string
	err   error
	panic bool
}

func (m *fakeMailer) Provider() string { return "fake" }

func (m *fakeMailer) Send(_ context.Context, email *services.Email) (string, error) {
	if m.panic {
		panic("provider exploded")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, email)
	return m.id, m.err
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func testConfig() *config.Config {
	return &config.Config{
		Environment:    "test",
		AppURL:         "https://mariakuris.com",
		ContactEmail:   "firm@example.com",
		WhatsAppNumber: "+54 9 11 2345-6789",
		EmailTestMode:  true,
	}
}

func setupContactHandler(t *testing.T, cfg *config.Config, mailer *fakeMailer) *ContactHandler {
	t.Helper()
	h := NewContactHandler(cfg, mailer, nil, metrics.NewContactMetrics(prometheus.NewRegistry()), zaptest.NewLogger(t).Sugar())
	h.now = func() time.Time { return time.Date(2026, time.October, 16, 17, 5, 0, 0, time.UTC) }
	return h
}

func setupEcho(method, path string, body io.Reader) (*echo.Echo, echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, body)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return e, c, rec
}

func jsonRequest(t *testing.T, h echo.HandlerFunc, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	e, c, rec := setupEcho(http.MethodPost, "/api/send-email", strings.NewReader(body))
	c.Request().Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c.Request().Header.Set("X-Forwarded-For", "203.0.113.7")
	for k, v := range headers {
		c.Request().Header.Set(k, v)
	}
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

const validBody = `{
	"nombre": "Jo",
	"apellido": "Lee",
	"empresa": "Acme Co",
	"email": "A@B.COM",
	"telefono": "+54 9 11 1234-5678",
	"areaConsulta": "Contratos",
	"mensaje": "Necesito asesoría legal urgente para mi empresa."
}`
