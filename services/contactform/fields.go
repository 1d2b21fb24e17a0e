// Package contactform validates and normalizes contact inquiries.
//
// It is shared by the delivery endpoint and the submission client so both
// sides apply exactly the same rules.
package contactform

// Field identifies one of the seven contact form inputs.
type Field string

const (
	FirstName   Field = "firstName"
	LastName    Field = "lastName"
	Company     Field = "company"
	Email       Field = "email"
	Phone       Field = "phone"
	InquiryArea Field = "inquiryArea"
	Message     Field = "message"
)

// Fields lists every field in form order.
var Fields = []Field{FirstName, LastName, Company, Email, Phone, InquiryArea, Message}

// wire names used by the delivery endpoint
var jsonKeys = map[Field]string{
	FirstName:   "nombre",
	LastName:    "apellido",
	Company:     "empresa",
	Email:       "email",
	Phone:       "telefono",
	InquiryArea: "areaConsulta",
	Message:     "mensaje",
}

// JSONKey returns the request key the delivery endpoint uses for f.
func (f Field) JSONKey() string {
	return jsonKeys[f]
}

// FieldForJSONKey maps a request key back to its Field.
func FieldForJSONKey(key string) (Field, bool) {
	for f, k := range jsonKeys {
		if k == key {
			return f, true
		}
	}
	return "", false
}

// Form holds raw, unvalidated input as typed by the user.
type Form struct {
	FirstName   string `json:"nombre" form:"nombre"`
	LastName    string `json:"apellido" form:"apellido"`
	Company     string `json:"empresa" form:"empresa"`
	Email       string `json:"email" form:"email"`
	Phone       string `json:"telefono" form:"telefono"`
	InquiryArea string `json:"areaConsulta" form:"areaConsulta"`
	Message     string `json:"mensaje" form:"mensaje"`
}

// Value returns the raw value of f.
func (f Form) Value(field Field) string {
	switch field {
	case FirstName:
		return f.FirstName
	case LastName:
		return f.LastName
	case Company:
		return f.Company
	case Email:
		return f.Email
	case Phone:
		return f.Phone
	case InquiryArea:
		return f.InquiryArea
	case Message:
		return f.Message
	}
	return ""
}

// Inquiry is a validated, normalized contact inquiry. Values of this type
// are only produced by Validate.
type Inquiry struct {
	FirstName   string `json:"nombre"`
	LastName    string `json:"apellido"`
	Company     string `json:"empresa"`
	Email       string `json:"email"`
	Phone       string `json:"telefono"`
	InquiryArea string `json:"areaConsulta"`
	Message     string `json:"mensaje"`
}

// Form converts the inquiry back into raw input. Validating the result
// yields the same inquiry.
func (i Inquiry) Form() Form {
	return Form(i)
}

// FullName joins first and last name.
func (i Inquiry) FullName() string {
	return i.FirstName + " " + i.LastName
}
