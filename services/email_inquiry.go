package services

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
	"time"

	"lawyer_site_go/services/contactform"
	"lawyer_site_go/services/whatsapp"

	"github.com/microcosm-cc/bluemonday"
)

//go:embed email_templates/*
var emailTemplates embed.FS

var (
	inquiryHTML = htmltemplate.Must(htmltemplate.ParseFS(emailTemplates, "email_templates/inquiry.html"))
	inquiryText = texttemplate.Must(texttemplate.ParseFS(emailTemplates, "email_templates/inquiry.txt"))

	// strips any markup a visitor typed; output is already HTML-escaped
	strictPolicy = bluemonday.StrictPolicy()
)

// buenosAires is fixed at UTC-3; Argentina has not observed DST since 2009.
var buenosAires = time.FixedZone("ART", -3*60*60)

// InquiryMeta is what the server knows about a submission besides the form.
type InquiryMeta struct {
	ClientIP       string
	ReceivedAt     time.Time
	WhatsAppNumber string
	SiteName       string
}

type inquiryHTMLData struct {
	FirstName, LastName, Company, InquiryArea, Message htmltemplate.HTML
	Phone                                              htmltemplate.HTML
	Email, PhoneLink                                   string
	ReplyURL                                           string
	ReceivedAt, SiteName, ClientIP                     string
}

type inquiryTextData struct {
	contactform.Inquiry
	ReplyURL                       string
	ReceivedAt, SiteName, ClientIP string
}

// InquirySubject is the subject line of the email sent to the firm.
func InquirySubject(inq contactform.Inquiry) string {
	return fmt.Sprintf("🏢 Nueva Consulta: %s - %s", inq.InquiryArea, inq.Company)
}

// BuildInquiryEmail renders the notification the firm receives for a new
// inquiry. Replies go straight to the visitor.
func BuildInquiryEmail(inq contactform.Inquiry, meta InquiryMeta, to string) (*Email, error) {
	ip := meta.ClientIP
	if ip == "" {
		ip = "unknown"
	}
	received := FormatSpanishTimestamp(meta.ReceivedAt)
	replyURL := whatsapp.Link(meta.WhatsAppNumber, whatsapp.ReplyGreeting(inq.FirstName, inq.InquiryArea))

	var html bytes.Buffer
	err := inquiryHTML.Execute(&html, inquiryHTMLData{
		FirstName:   sanitize(inq.FirstName),
		LastName:    sanitize(inq.LastName),
		Company:     sanitize(inq.Company),
		InquiryArea: sanitize(inq.InquiryArea),
		Message:     sanitize(inq.Message),
		Email:       inq.Email,
		Phone:       sanitize(inq.Phone),
		PhoneLink:   inq.Phone,
		ReplyURL:    replyURL,
		ReceivedAt:  received,
		SiteName:    meta.SiteName,
		ClientIP:    ip,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render inquiry html: %w", err)
	}

	var text bytes.Buffer
	err = inquiryText.Execute(&text, inquiryTextData{
		Inquiry:    inq,
		ReplyURL:   replyURL,
		ReceivedAt: received,
		SiteName:   meta.SiteName,
		ClientIP:   ip,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render inquiry text: %w", err)
	}

	return &Email{
		To:       []string{to},
		ReplyTo:  inq.Email,
		Subject:  InquirySubject(inq),
		HTMLBody: html.String(),
		TextBody: text.String(),
	}, nil
}

func sanitize(s string) htmltemplate.HTML {
	return htmltemplate.HTML(strictPolicy.Sanitize(s))
}

var (
	spanishWeekdays = [...]string{"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"}
	spanishMonths   = [...]string{"enero", "febrero", "marzo", "abril", "mayo", "junio", "julio",
		"agosto", "septiembre", "octubre", "noviembre", "diciembre"}
)

// FormatSpanishTimestamp renders t in Buenos Aires time the way es-AR
// browsers print a long date, e.g. "jueves, 16 de octubre de 2026, 14:05".
func FormatSpanishTimestamp(t time.Time) string {
	t = t.In(buenosAires)
	return fmt.Sprintf("%s, %d de %s de %d, %02d:%02d",
		spanishWeekdays[t.Weekday()], t.Day(), spanishMonths[t.Month()-1], t.Year(), t.Hour(), t.Minute())
}
