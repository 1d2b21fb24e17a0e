// Package client submits contact inquiries to the site's delivery endpoint
// and classifies the result.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"lawyer_site_go/config"
	"lawyer_site_go/services/contactform"
	"lawyer_site_go/services/whatsapp"
)

const (
	// DefaultTimeout bounds one submission, including reading the response.
	DefaultTimeout = 12 * time.Second

	sendEmailPath = "/api/send-email"
	configPath    = "/api/config"

	// responses larger than this are not from the delivery endpoint
	maxResponseBytes = 1 << 20
)

// Client talks to one site. It is safe for concurrent use.
type Client struct {
	baseURL        *url.URL
	http           *http.Client
	timeout        time.Duration
	whatsappNumber string
}

type Option func(*Client)

// WithHTTPClient replaces the default client. Its own timeout is kept
// unless WithTimeout is also given; hc itself is never modified.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds each request, whatever the order of options.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithWhatsAppNumber sets the number used when the server does not return a
// deep-link of its own.
func WithWhatsAppNumber(number string) Option {
	return func(c *Client) { c.whatsappNumber = number }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL:        u,
		http:           &http.Client{Timeout: DefaultTimeout},
		whatsappNumber: config.DefaultWhatsAppNumber,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c, nil
}

// UsingWhatsAppNumber returns a copy of c that builds local deep-links with
// number, e.g. the one read by FetchConfig.
func (c *Client) UsingWhatsAppNumber(number string) *Client {
	cp := *c
	cp.whatsappNumber = number
	return &cp
}

func (c *Client) endpoint(path string) string {
	return c.baseURL.String() + path
}

type submitResponse struct {
	Success     bool            `json:"success"`
	Message     string          `json:"message"`
	EmailID     *string         `json:"emailId"`
	WhatsAppURL string          `json:"whatsappUrl"`
	Error       *string         `json:"error"`
	Details     json.RawMessage `json:"details"`
}

type detailEntry struct {
	Path    []interface{} `json:"path"`
	Message string        `json:"message"`
}

// Submit posts the inquiry once. It never retries and never returns an
// error: every failure is folded into the Outcome.
func (c *Client) Submit(ctx context.Context, inquiry contactform.Inquiry) Outcome {
	body, err := json.Marshal(inquiry)
	if err != nil {
		return transportFailure(fmt.Errorf("encode inquiry: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(sendEmailPath), bytes.NewReader(body))
	if err != nil {
		return transportFailure(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return transportFailure(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return transportFailure(fmt.Errorf("read response: %w", err))
	}

	var sr submitResponse
	if err := json.Unmarshal(raw, &sr); err != nil {
		return transportFailure(fmt.Errorf("malformed response (status %d): %w", resp.StatusCode, err))
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	switch {
	case !ok || sr.Error != nil:
		msg := ""
		if sr.Error != nil {
			msg = *sr.Error
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return rejected(msg, fieldErrors(sr.Details))
	case sr.Success:
		var id string
		if sr.EmailID != nil {
			id = *sr.EmailID
		}
		waURL := sr.WhatsAppURL
		if waURL == "" {
			waURL = whatsapp.Link(c.whatsappNumber,
				whatsapp.InquiryGreeting(inquiry.FirstName, inquiry.Company, inquiry.InquiryArea, inquiry.Message))
		}
		return delivered(id, waURL)
	}
	return transportFailure(errors.New("unexpected response: neither success nor error"))
}

// fieldErrors maps 400 details back to form fields. Details that are not a
// list of {path, message} entries are ignored.
func fieldErrors(details json.RawMessage) contactform.Errors {
	if len(details) == 0 {
		return nil
	}
	var entries []detailEntry
	if err := json.Unmarshal(details, &entries); err != nil {
		return nil
	}

	errs := contactform.Errors{}
	for _, e := range entries {
		if len(e.Path) == 0 {
			continue
		}
		key, ok := e.Path[0].(string)
		if !ok {
			continue
		}
		f, known := contactform.FieldForJSONKey(key)
		if !known {
			f = contactform.Field(key)
		}
		if _, dup := errs[f]; !dup {
			errs[f] = e.Message
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// PublicConfig holds the contact details the site publishes.
type PublicConfig struct {
	WhatsAppNumber string `json:"whatsappNumber"`
	ContactEmail   string `json:"contactEmail"`
}

// DefaultPublicConfig is used whenever the endpoint cannot be read.
var DefaultPublicConfig = PublicConfig{
	WhatsAppNumber: config.DefaultWhatsAppNumber,
	ContactEmail:   config.DefaultContactEmail,
}

// FetchConfig reads GET /api/config. On any failure it returns the
// built-in defaults together with the error; callers may ignore the error.
func (c *Client) FetchConfig(ctx context.Context) (PublicConfig, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(configPath), nil)
	if err != nil {
		return DefaultPublicConfig, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return DefaultPublicConfig, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return DefaultPublicConfig, fmt.Errorf("config endpoint returned status %d", resp.StatusCode)
	}

	var pc PublicConfig
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&pc); err != nil {
		return DefaultPublicConfig, fmt.Errorf("decode config: %w", err)
	}
	if pc.WhatsAppNumber == "" {
		pc.WhatsAppNumber = DefaultPublicConfig.WhatsAppNumber
	}
	if pc.ContactEmail == "" {
		pc.ContactEmail = DefaultPublicConfig.ContactEmail
	}
	return pc, nil
}

// DraftWhatsAppURL builds a quick-contact link from a possibly incomplete
// form. Nothing is validated and nothing is sent.
func (c *Client) DraftWhatsAppURL(form contactform.Form) string {
	return whatsapp.Link(c.whatsappNumber, whatsapp.DraftGreeting(whatsapp.Draft{
		FirstName:   form.FirstName,
		Company:     form.Company,
		InquiryArea: form.InquiryArea,
		Message:     form.Message,
	}))
}
