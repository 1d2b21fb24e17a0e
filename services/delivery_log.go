package services

import (
	"strings"
	"sync"
	"unicode/utf8"

	"lawyer_site_go/models"
	"lawyer_site_go/services/contactform"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DeliveryAttempt is the outcome of one provider call for an inquiry.
type DeliveryAttempt struct {
	Inquiry   contactform.Inquiry
	Provider  string
	MessageID string
	Err       error
	IPAddress string
	UserAgent string
}

// DeliveryRecorder stores masked delivery attempts. A nil *DeliveryRecorder
// records nothing, which is how the log is disabled.
type DeliveryRecorder struct {
	db  *gorm.DB
	log *zap.SugaredLogger
	wg  sync.WaitGroup
}

func NewDeliveryRecorder(db *gorm.DB, log *zap.SugaredLogger) *DeliveryRecorder {
	return &DeliveryRecorder{db: db, log: log}
}

// Record writes the attempt in the background. Failures are only logged.
func (r *DeliveryRecorder) Record(a DeliveryAttempt) {
	if r == nil {
		return
	}

	row := models.DeliveryLog{
		Status:            models.DeliveryStatusDelivered,
		Provider:          a.Provider,
		ProviderMessageID: a.MessageID,
		InquiryArea:       a.Inquiry.InquiryArea,
		Company:           a.Inquiry.Company,
		MaskedEmail:       MaskEmail(a.Inquiry.Email),
		MaskedPhone:       MaskPhone(a.Inquiry.Phone),
		IPAddress:         a.IPAddress,
		UserAgent:         a.UserAgent,
	}
	if a.Err != nil {
		row.Status = models.DeliveryStatusFailed
		row.Error = a.Err.Error()
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.db.Create(&row).Error; err != nil {
			r.log.Errorw("failed to record delivery", "error", err, "status", row.Status)
		}
	}()
}

// Wait blocks until every pending write has finished.
func (r *DeliveryRecorder) Wait() {
	if r == nil {
		return
	}
	r.wg.Wait()
}

// MaskEmail keeps the first three characters of the local part:
// "maria.kuris@estudio.ar" becomes "mar***@estudio.ar".
func MaskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok {
		return "***"
	}
	return truncateRunes(local, 3) + "***@" + domain
}

// MaskPhone keeps the last four characters: "***5678".
func MaskPhone(phone string) string {
	r := []rune(phone)
	if len(r) > 4 {
		r = r[len(r)-4:]
	}
	return "***" + string(r)
}

// MaskMessage keeps the first 50 characters of a message.
func MaskMessage(msg string) string {
	if utf8.RuneCountInString(msg) <= 50 {
		return msg
	}
	return truncateRunes(msg, 50) + "..."
}

// InquiryLogFields returns zap key/value pairs describing an inquiry without
// exposing contact details.
func InquiryLogFields(inq contactform.Inquiry) []interface{} {
	return []interface{}{
		"company", inq.Company,
		"area", inq.InquiryArea,
		"email", MaskEmail(inq.Email),
		"phone", MaskPhone(inq.Phone),
		"message", MaskMessage(inq.Message),
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
