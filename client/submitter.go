package client

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"lawyer_site_go/services/contactform"

	"golang.org/x/time/rate"
)

// DefaultMinInterval is the minimum gap between attempts that reach the
// network.
const DefaultMinInterval = 1500 * time.Millisecond

var (
	ErrSubmitInProgress = errors.New("a submission is already in progress")
	ErrSubmitTooSoon    = errors.New("please wait a moment before submitting again")
)

// Submitter guards a Client against duplicate submissions: at most one
// attempt in flight, and attempts spaced by a minimum interval. Rejected
// attempts are never queued.
type Submitter struct {
	client   *Client
	inFlight atomic.Bool
	limiter  *rate.Limiter
	now      func() time.Time
}

func NewSubmitter(c *Client, minInterval time.Duration) *Submitter {
	if minInterval <= 0 {
		minInterval = DefaultMinInterval
	}
	return &Submitter{
		client:  c,
		limiter: rate.NewLimiter(rate.Every(minInterval), 1),
		now:     time.Now,
	}
}

// Submit validates the form and, when it is valid and the guard allows,
// sends it. The error is a *contactform.ValidationError, ErrSubmitInProgress
// or ErrSubmitTooSoon; in those cases nothing was sent and the Outcome is
// the zero value.
func (s *Submitter) Submit(ctx context.Context, form contactform.Form) (Outcome, error) {
	inquiry, err := contactform.Validate(form)
	if err != nil {
		return Outcome{}, err
	}

	if !s.inFlight.CompareAndSwap(false, true) {
		return Outcome{}, ErrSubmitInProgress
	}
	defer s.inFlight.Store(false)

	if !s.limiter.AllowN(s.now(), 1) {
		return Outcome{}, ErrSubmitTooSoon
	}

	return s.client.Submit(ctx, inquiry), nil
}

// Submitting reports whether an attempt is outstanding.
func (s *Submitter) Submitting() bool {
	return s.inFlight.Load()
}
