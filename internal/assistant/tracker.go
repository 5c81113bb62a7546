package assistant

import (
	"context"
	"sync"
	"time"
)

// Result is the outcome of one assistant exchange
type Result struct {
	Ticket    uint64
	Response  *Response
	Err       error
	UpdatedAt time.Time
}

// Tracker keeps the result of the most recently started request.
// A slow response to an older recording never replaces a newer one.
type Tracker struct {
	mu      sync.Mutex
	issued  uint64
	current Result
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{}
}

// Begin issues a ticket for a new request
func (t *Tracker) Begin() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.issued++
	return t.issued
}

// Complete stores the result if ticket is the latest one issued.
// It reports whether the result was kept.
func (t *Tracker) Complete(ticket uint64, resp *Response, err error) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if ticket != t.issued {
		return false
	}
	t.current = Result{
		Ticket:    ticket,
		Response:  resp,
		Err:       err,
		UpdatedAt: time.Now(),
	}
	return true
}

// Current returns the latest kept result
func (t *Tracker) Current() Result {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Sender uploads a WAV recording
type Sender interface {
	Send(ctx context.Context, wav []byte) (*Response, error)
}

// Dispatcher forwards finished recordings to a Sender and publishes
// the newest result. It satisfies capture.Sink.
type Dispatcher struct {
	sender   Sender
	tracker  *Tracker
	onResult func(Result)
}

// NewDispatcher creates a dispatcher. onResult may be nil.
func NewDispatcher(sender Sender, tracker *Tracker, onResult func(Result)) *Dispatcher {
	if tracker == nil {
		tracker = NewTracker()
	}
	return &Dispatcher{sender: sender, tracker: tracker, onResult: onResult}
}

// Deliver sends wav and returns the send error, if any. An error that was
// already handed to onResult is wrapped in *PublishedError.
func (d *Dispatcher) Deliver(ctx context.Context, wav []byte) error {
	ticket := d.tracker.Begin()
	resp, err := d.sender.Send(ctx, wav)
	if d.tracker.Complete(ticket, resp, err) && d.onResult != nil {
		d.onResult(d.tracker.Current())
		if err != nil {
			return &PublishedError{Err: err}
		}
	}
	return err
}

// Tracker returns the dispatcher's tracker
func (d *Dispatcher) Tracker() *Tracker {
	return d.tracker
}
