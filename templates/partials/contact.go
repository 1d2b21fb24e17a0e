package partials

import (
	"context"
	"fmt"
	"io"
	"strings"

	"lawyer_site_go/services/contactform"

	"github.com/a-h/templ"
)

var fieldLabels = map[contactform.Field]string{
	contactform.FirstName:   "Nombre",
	contactform.LastName:    "Apellido",
	contactform.Company:     "Empresa",
	contactform.Email:       "Email",
	contactform.Phone:       "Teléfono",
	contactform.InquiryArea: "Área de consulta",
	contactform.Message:     "Mensaje",
}

const alertIcon = `<svg class="w-5 h-5 flex-shrink-0" fill="none" stroke="currentColor" viewBox="0 0 24 24"><path stroke-linecap="round" stroke-linejoin="round" stroke-width="2" d="M12 8v4m0 4h.01M21 12a9 9 0 11-18 0 9 9 0 0118 0z"></path></svg>`

// ErrorBanner renders a single error message, e.g. rate limiting or a
// provider failure.
func ErrorBanner(message string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w,
			`<div id="contact-feedback" role="alert" class="bg-red-500/10 border border-red-500/20 text-red-400 px-4 py-3 rounded-xl flex items-center gap-3">%s<span class="text-sm font-medium">%s</span></div>`,
			alertIcon, templ.EscapeString(message))
		return err
	})
}

// FieldErrors renders the rejected fields in form order. Each item carries
// the request key so the page script can highlight the matching input.
func FieldErrors(message string, errs contactform.Errors) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<div id="contact-feedback" role="alert" class="bg-red-500/10 border border-red-500/20 text-red-400 px-4 py-3 rounded-xl">`)
		fmt.Fprintf(&b, `<p class="text-sm font-semibold">%s</p><ul class="mt-2 space-y-1 text-sm">`, templ.EscapeString(message))
		for _, f := range errs.Fields() {
			label, ok := fieldLabels[f]
			if !ok {
				label = string(f)
			}
			fmt.Fprintf(&b, `<li data-field="%s"><strong>%s:</strong> %s</li>`,
				templ.EscapeString(f.JSONKey()), templ.EscapeString(label), templ.EscapeString(errs[f]))
		}
		b.WriteString(`</ul></div>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// ContactSuccess confirms delivery and offers to continue on WhatsApp.
func ContactSuccess(message, whatsappURL string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		fmt.Fprintf(&b,
			`<div id="contact-feedback" role="status" class="bg-green-500/10 border border-green-500/20 text-green-400 px-4 py-3 rounded-xl"><p class="text-sm font-medium">%s</p>`,
			templ.EscapeString(message))
		if whatsappURL != "" {
			fmt.Fprintf(&b,
				`<a href="%s" target="_blank" rel="noopener noreferrer" class="inline-block mt-3 px-6 py-3 rounded-full bg-[#25d366] text-white font-medium">📱 Continuar por WhatsApp</a>`,
				templ.EscapeString(string(templ.URL(whatsappURL))))
		}
		b.WriteString(`</div>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}
