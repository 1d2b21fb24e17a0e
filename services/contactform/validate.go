package contactform

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var (
	nameRe  = regexp.MustCompile(`^[\p{L}\p{M}\s]+$`)
	phoneRe = regexp.MustCompile(`^[0-9+\-()]+$`)

	syntax = validator.New()
)

// FieldError is the rejection of a single field.
type FieldError struct {
	Field   Field
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type rule struct {
	label     string // subject used in messages, e.g. "El nombre"
	min, max  int    // rune counts after normalization
	normalize func(string) string
	valid     func(string) bool
	invalid   string
}

var rules = map[Field]rule{
	FirstName: {
		label: "El nombre", min: 2, max: 50,
		valid:   nameRe.MatchString,
		invalid: "El nombre solo puede contener letras y espacios",
	},
	LastName: {
		label: "El apellido", min: 2, max: 50,
		valid:   nameRe.MatchString,
		invalid: "El apellido solo puede contener letras y espacios",
	},
	Company: {
		label: "La empresa", min: 2, max: 100,
	},
	Email: {
		label: "El email", min: 5, max: 254,
		normalize: strings.ToLower,
		valid:     isEmail,
		invalid:   "Por favor ingrese un email válido",
	},
	Phone: {
		label: "El teléfono", min: 10, max: 20,
		normalize: stripSpaces,
		valid:     phoneRe.MatchString,
		invalid:   "El teléfono solo puede contener números, espacios, guiones y paréntesis",
	},
	InquiryArea: {
		label: "El área de consulta", min: 5, max: 200,
	},
	Message: {
		label: "El mensaje", min: 20, max: 2000,
	},
}

// ValidateField checks one raw value. It returns the normalized value, or a
// FieldError describing the first rule the value breaks.
func ValidateField(field Field, raw string) (string, error) {
	r, ok := rules[field]
	if !ok {
		return "", FieldError{Field: field, Message: "Campo desconocido"}
	}

	value := strings.TrimSpace(raw)
	if r.normalize != nil {
		value = r.normalize(value)
	}

	n := utf8.RuneCountInString(value)
	switch {
	case n < r.min:
		return "", FieldError{field, fmt.Sprintf("%s debe tener al menos %d caracteres", r.label, r.min)}
	case n > r.max:
		return "", FieldError{field, fmt.Sprintf("%s no puede exceder %d caracteres", r.label, r.max)}
	case r.valid != nil && !r.valid(value):
		return "", FieldError{field, r.invalid}
	}
	return value, nil
}

// Errors maps each invalid field to its message.
type Errors map[Field]string

// Fields returns the invalid fields in form order.
func (e Errors) Fields() []Field {
	out := make([]Field, 0, len(e))
	for _, f := range Fields {
		if _, ok := e[f]; ok {
			out = append(out, f)
		}
	}
	// fields outside the known set, e.g. from a server response
	var extra []Field
	for f := range e {
		if _, known := rules[f]; !known {
			extra = append(extra, f)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}

// ValidationError reports every invalid field of a form.
type ValidationError struct {
	Errors Errors
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Errors))
	for _, f := range e.Errors.Fields() {
		names = append(names, string(f))
	}
	return fmt.Sprintf("contact form has %d invalid field(s): %s", len(names), strings.Join(names, ", "))
}

// Validate runs every field validator and collects all failures. On success
// it returns the normalized inquiry; otherwise a *ValidationError.
func Validate(form Form) (Inquiry, error) {
	values := make(map[Field]string, len(Fields))
	errs := Errors{}

	for _, f := range Fields {
		v, err := ValidateField(f, form.Value(f))
		if err != nil {
			errs[f] = err.(FieldError).Message
			continue
		}
		values[f] = v
	}

	if len(errs) > 0 {
		return Inquiry{}, &ValidationError{Errors: errs}
	}

	return Inquiry{
		FirstName:   values[FirstName],
		LastName:    values[LastName],
		Company:     values[Company],
		Email:       values[Email],
		Phone:       values[Phone],
		InquiryArea: values[InquiryArea],
		Message:     values[Message],
	}, nil
}

func isEmail(s string) bool {
	return syntax.Var(s, "required,email") == nil
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
