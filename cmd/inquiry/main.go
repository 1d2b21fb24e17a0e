// Command inquiry submits a contact inquiry to a running site from the
// terminal. Fields not given as flags are prompted for.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"lawyer_site_go/client"
	"lawyer_site_go/logger"
	"lawyer_site_go/services/contactform"
)

const (
	exitDelivered = 0
	exitFailed    = 1
	exitInvalid   = 2
)

var prompts = map[contactform.Field]string{
	contactform.FirstName:   "Nombre",
	contactform.LastName:    "Apellido",
	contactform.Company:     "Empresa",
	contactform.Email:       "Email",
	contactform.Phone:       "Teléfono",
	contactform.InquiryArea: "Área de consulta",
	contactform.Message:     "Mensaje",
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout))
}

func run(args []string, stdin io.Reader, stdout io.Writer) int {
	log := logger.Bootstrap()
	defer func() { _ = log.Sync() }()

	fs := flag.NewFlagSet("inquiry", flag.ContinueOnError)
	baseURL := fs.String("url", envOr("SITE_URL", "http://localhost:8080"), "site base URL")
	timeout := fs.Duration("timeout", client.DefaultTimeout, "request timeout")
	draft := fs.Bool("draft", false, "print a WhatsApp quick-contact link instead of submitting")
	noPrompt := fs.Bool("no-prompt", false, "do not ask for missing fields")

	var form contactform.Form
	fs.StringVar(&form.FirstName, "nombre", "", "first name")
	fs.StringVar(&form.LastName, "apellido", "", "last name")
	fs.StringVar(&form.Company, "empresa", "", "company")
	fs.StringVar(&form.Email, "email", "", "email address")
	fs.StringVar(&form.Phone, "telefono", "", "phone number")
	fs.StringVar(&form.InquiryArea, "area", "", "inquiry area")
	fs.StringVar(&form.Message, "mensaje", "", "message")
	if err := fs.Parse(args); err != nil {
		return exitInvalid
	}

	c, err := client.New(*baseURL, client.WithTimeout(*timeout))
	if err != nil {
		log.Errorw("invalid site url", "url", *baseURL, "error", err)
		return exitInvalid
	}

	ctx := context.Background()
	pc, err := c.FetchConfig(ctx)
	if err != nil {
		log.Warnw("could not read site config, using defaults", "error", err)
	}
	c = c.UsingWhatsAppNumber(pc.WhatsAppNumber)

	if *draft {
		fmt.Fprintln(stdout, c.DraftWhatsAppURL(form))
		return exitDelivered
	}

	if !*noPrompt {
		form = promptMissing(form, bufio.NewReader(stdin), stdout)
	}

	submitter := client.NewSubmitter(c, client.DefaultMinInterval)
	start := time.Now()
	out, err := submitter.Submit(ctx, form)
	if err != nil {
		var ve *contactform.ValidationError
		if errors.As(err, &ve) {
			for _, f := range ve.Errors.Fields() {
				fmt.Fprintf(stdout, "  %s: %s\n", prompts[f], ve.Errors[f])
			}
			return exitInvalid
		}
		log.Errorw("submission not sent", "error", err)
		return exitFailed
	}

	switch out.Status {
	case client.StatusDelivered:
		log.Infow("inquiry delivered", "email_id", out.MessageID, "duration", time.Since(start))
		fmt.Fprintln(stdout, "Consulta enviada. Continúe por WhatsApp:")
		fmt.Fprintln(stdout, out.WhatsAppURL)
		return exitDelivered
	case client.StatusRejected:
		log.Warnw("inquiry rejected", "message", out.Message)
		fmt.Fprintln(stdout, out.Message)
		for _, f := range out.FieldErrors.Fields() {
			label, ok := prompts[f]
			if !ok {
				label = string(f)
			}
			fmt.Fprintf(stdout, "  %s: %s\n", label, out.FieldErrors[f])
		}
	default:
		log.Errorw("inquiry could not reach the site", "error", out.Err)
		fmt.Fprintln(stdout, "No se pudo contactar al servidor. Intente nuevamente.")
	}
	return exitFailed
}

func promptMissing(form contactform.Form, in *bufio.Reader, out io.Writer) contactform.Form {
	set := map[contactform.Field]*string{
		contactform.FirstName:   &form.FirstName,
		contactform.LastName:    &form.LastName,
		contactform.Company:     &form.Company,
		contactform.Email:       &form.Email,
		contactform.Phone:       &form.Phone,
		contactform.InquiryArea: &form.InquiryArea,
		contactform.Message:     &form.Message,
	}
	for _, f := range contactform.Fields {
		if strings.TrimSpace(*set[f]) != "" {
			continue
		}
		fmt.Fprintf(out, "%s: ", prompts[f])
		line, _ := in.ReadString('\n')
		*set[f] = strings.TrimSpace(line)
	}
	return form
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
