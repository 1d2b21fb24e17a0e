package client

import (
	"fmt"

	"lawyer_site_go/services/contactform"
)

// Status classifies a submission attempt.
type Status string

const (
	StatusDelivered        Status = "delivered"
	StatusRejected         Status = "rejected"
	StatusTransportFailure Status = "transport_failure"
)

// Outcome is the result of one submission attempt. Exactly one of the
// status-specific groups of fields is meaningful.
type Outcome struct {
	Status Status

	// Delivered. MessageID may be empty.
	MessageID   string
	WhatsAppURL string

	// Rejected. FieldErrors is set only when the server reported
	// per-field problems.
	Message     string
	FieldErrors contactform.Errors

	// TransportFailure
	Err error
}

func (o Outcome) Delivered() bool { return o.Status == StatusDelivered }

func (o Outcome) String() string {
	switch o.Status {
	case StatusDelivered:
		if o.MessageID == "" {
			return "delivered"
		}
		return fmt.Sprintf("delivered (id %s)", o.MessageID)
	case StatusRejected:
		if len(o.FieldErrors) > 0 {
			return fmt.Sprintf("rejected: %s (%d field error(s))", o.Message, len(o.FieldErrors))
		}
		return "rejected: " + o.Message
	case StatusTransportFailure:
		return fmt.Sprintf("transport failure: %v", o.Err)
	}
	return string(o.Status)
}

func delivered(id, waURL string) Outcome {
	return Outcome{Status: StatusDelivered, MessageID: id, WhatsAppURL: waURL}
}

func rejected(msg string, fields contactform.Errors) Outcome {
	return Outcome{Status: StatusRejected, Message: msg, FieldErrors: fields}
}

func transportFailure(err error) Outcome {
	return Outcome{Status: StatusTransportFailure, Err: err}
}
