package client

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"lawyer_site_go/services/contactform"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validForm() contactform.Form {
	return contactform.Form{
		FirstName:   "Jo",
		LastName:    "Lee",
		Company:     "Acme Co",
		Email:       "A@B.COM",
		Phone:       "+54 9 11 1234-5678",
		InquiryArea: "Contratos",
		Message:     "Necesito asesoría legal urgente para mi empresa.",
	}
}

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (m *manualClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *manualClock) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

func newTestSubmitter(c *Client) (*Submitter, *manualClock) {
	clock := &manualClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	s := NewSubmitter(c, DefaultMinInterval)
	s.now = clock.Now
	return s, clock
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, `{"success":true,"message":"ok","emailId":"id"}`)
}

func TestSubmitter_InvalidFormNeverSends(t *testing.T) {
	c, hits := newTestClient(t, okHandler)
	s, _ := newTestSubmitter(c)

	form := validForm()
	form.Email = "nope"
	form.Message = "corto"

	out, err := s.Submit(context.Background(), form)
	var ve *contactform.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Len(t, ve.Errors, 2)
	assert.Equal(t, Outcome{}, out)
	assert.Zero(t, atomic.LoadInt32(hits))

	// a rejected form does not consume the interval
	out, err = s.Submit(context.Background(), validForm())
	require.NoError(t, err)
	assert.True(t, out.Delivered())
}

func TestSubmitter_SendsNormalizedValues(t *testing.T) {
	var body string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		body = string(buf)
		okHandler(w, r)
	})
	s, _ := newTestSubmitter(c)

	_, err := s.Submit(context.Background(), validForm())
	require.NoError(t, err)
	assert.Contains(t, body, `"email":"a@b.com"`)
	assert.Contains(t, body, `"telefono":"+549111234-5678"`)
}

func TestSubmitter_TooSoon(t *testing.T) {
	c, hits := newTestClient(t, okHandler)
	s, clock := newTestSubmitter(c)

	out, err := s.Submit(context.Background(), validForm())
	require.NoError(t, err)
	assert.True(t, out.Delivered())

	clock.Advance(time.Second)
	_, err = s.Submit(context.Background(), validForm())
	assert.ErrorIs(t, err, ErrSubmitTooSoon)
	assert.Equal(t, int32(1), atomic.LoadInt32(hits), "second attempt never reaches the network")
	assert.False(t, s.Submitting())

	clock.Advance(600 * time.Millisecond)
	out, err = s.Submit(context.Background(), validForm())
	require.NoError(t, err)
	assert.True(t, out.Delivered())
	assert.Equal(t, int32(2), atomic.LoadInt32(hits))
}

func TestSubmitter_InFlight(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		okHandler(w, r)
	})
	s, clock := newTestSubmitter(c)

	done := make(chan Outcome)
	go func() {
		out, _ := s.Submit(context.Background(), validForm())
		done <- out
	}()

	<-entered
	assert.True(t, s.Submitting())

	// even after the interval has passed, the second call is refused
	clock.Advance(5 * time.Second)
	_, err := s.Submit(context.Background(), validForm())
	assert.ErrorIs(t, err, ErrSubmitInProgress)

	close(release)
	out := <-done
	assert.True(t, out.Delivered())
	assert.False(t, s.Submitting())
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
}

func TestSubmitter_FailureReleasesFlag(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, `{"error":"Error al enviar el email"}`)
	})
	s, clock := newTestSubmitter(c)

	out, err := s.Submit(context.Background(), validForm())
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, out.Status)
	assert.False(t, s.Submitting())

	clock.Advance(2 * time.Second)
	out, err = s.Submit(context.Background(), validForm())
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, out.Status)
}
