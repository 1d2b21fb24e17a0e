// Package whatsapp builds wa.me deep-links with pre-filled messages.
package whatsapp

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"
)

const baseURL = "https://wa.me/"

// Link returns https://wa.me/<digits>?text=<greeting>. Every non-digit is
// removed from number. The greeting is escaped the way browsers'
// encodeURIComponent does, so spaces become %20 rather than "+".
func Link(number, greeting string) string {
	link := baseURL + Digits(number)
	if greeting == "" {
		return link
	}
	return link + "?text=" + EncodeComponent(greeting)
}

// Digits keeps only the decimal digits of s.
func Digits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// componentUnreserved restores the characters encodeURIComponent leaves
// alone but url.QueryEscape escapes.
var componentUnreserved = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EncodeComponent percent-encodes s exactly like encodeURIComponent.
func EncodeComponent(s string) string {
	return componentUnreserved.Replace(url.QueryEscape(s))
}

// InquiryGreeting is the message a visitor sends after submitting the form.
func InquiryGreeting(firstName, company, area, message string) string {
	return fmt.Sprintf("Hola, soy %s de %s. Te escribo sobre: %s. %s", firstName, company, area, message)
}

// ReplyGreeting is the message the lawyer sends back to a visitor.
func ReplyGreeting(firstName, area string) string {
	return fmt.Sprintf("Hola %s, recibí tu consulta sobre %s y me contacto para coordinar una reunión.", firstName, area)
}

// Draft describes a partially filled form.
type Draft struct {
	FirstName   string
	Company     string
	InquiryArea string
	Message     string
}

// DraftGreeting builds a quick-contact message from whatever the visitor
// has typed so far.
func DraftGreeting(d Draft) string {
	first := clean(d.FirstName)
	company := clean(d.Company)
	area := clean(d.InquiryArea)
	message := clean(d.Message)

	var b strings.Builder
	if first != "" || company != "" {
		fmt.Fprintf(&b, "Hola, soy %s de %s. ", first, company)
	} else {
		b.WriteString("Hola, ")
	}
	if area != "" {
		fmt.Fprintf(&b, "Te escribo sobre: %s. ", area)
	}
	if message != "" {
		b.WriteString(message)
	} else {
		b.WriteString("Me gustaría recibir más información sobre sus servicios corporativos.")
	}
	return b.String()
}

func clean(s string) string {
	return strings.TrimFunc(s, unicode.IsSpace)
}
