package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"push-to-type/internal/domain"
)

// Backoff policy: the first poll comes fast because jobs are often short;
// the interval then grows multiplicatively with a hard ceiling so long jobs
// do not generate request storms while staying reasonably responsive.
const (
	InitialPollInterval = 100 * time.Millisecond
	MaxPollInterval     = 5 * time.Second
	DefaultPollTimeout  = 60 * time.Second

	backoffNumerator   = 3
	backoffDenominator = 2
)

// NextInterval returns the backoff successor of interval: ×1.5 capped at
// MaxPollInterval. Pure so the schedule is testable without timers.
func NextInterval(interval time.Duration) time.Duration {
	next := interval * backoffNumerator / backoffDenominator
	if next > MaxPollInterval {
		next = MaxPollInterval
	}
	return next
}

// Poller runs one poll loop for one uploaded recording. It delivers exactly
// one terminal Job on Result, or nothing at all when cancelled first.
type Poller struct {
	client      *Client
	recordingID string
	timeout     time.Duration

	mu        sync.Mutex
	cancelled bool

	cancelCh chan struct{}
	result   chan domain.Job
}

// PollTranscription starts polling the job's status endpoint and returns
// the poller handle. At most one poller should be live per recording
// session; starting a new session cancels the previous handle first.
func (c *Client) PollTranscription(recordingID string) *Poller {
	p := &Poller{
		client:      c,
		recordingID: recordingID,
		timeout:     c.pollTimeout,
		cancelCh:    make(chan struct{}),
		result:      make(chan domain.Job, 1),
	}
	go p.run()
	return p
}

// Result returns the one-shot terminal job channel. It never yields after
// Cancel, even when an in-flight request resolves afterwards.
func (p *Poller) Result() <-chan domain.Job {
	return p.result
}

// Cancel stops the loop: no further cycle fires and no result is delivered.
// Idempotent and safe from any goroutine.
func (p *Poller) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancelled {
		return
	}
	p.cancelled = true
	close(p.cancelCh)
}

// isCancelled reports the cancel flag. Checked both before scheduling the
// next cycle and immediately before delivering a terminal result.
func (p *Poller) isCancelled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancelled
}

// run drives Scheduled → Inflight cycles until a terminal state.
func (p *Poller) run() {
	start := time.Now()
	interval := InitialPollInterval

	job := domain.Job{
		ID:        p.recordingID,
		Status:    domain.JobStatusPending,
		CreatedAt: start,
	}

	for {
		timer := time.NewTimer(interval)
		select {
		case <-timer.C:
		case <-p.cancelCh:
			timer.Stop()
			return
		}

		// Wall-clock deadline, independent of individual request latency.
		if time.Since(start) > p.timeout {
			job.Status = domain.JobStatusTimeout
			job.ErrorMessage = ErrTimeout.Error()
			p.deliver(job)
			return
		}

		outcome, err := p.pollOnce()
		if p.isCancelled() {
			return
		}

		switch {
		case err != nil:
			job.Status = domain.JobStatusError
			job.ErrorMessage = err.Error()
			p.deliver(job)
			return
		case outcome.terminal:
			job.Status = outcome.status
			job.ResultText = outcome.text
			job.ErrorMessage = outcome.message
			p.deliver(job)
			return
		default:
			job.Status = domain.JobStatusProcessing
			interval = NextInterval(interval)
		}
	}
}

// pollOutcome is one cycle's classification.
type pollOutcome struct {
	terminal bool
	status   domain.JobStatus
	text     string
	message  string
}

// pollOnce issues a single status request. A returned error is terminal;
// a non-terminal outcome means "back off and reschedule".
func (p *Poller) pollOnce() (pollOutcome, error) {
	url := fmt.Sprintf("%s/api/transcription/%s", p.client.baseURL, p.recordingID)
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		return pollOutcome{}, fmt.Errorf("build poll request: %w", err)
	}
	p.client.authorize(req)

	resp, err := p.client.httpClient.Do(req)
	if err != nil {
		// Transport failure is terminal; the caller may re-upload.
		return pollOutcome{}, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		drainBody(resp.Body)
		return pollOutcome{}, ErrUnknownJob
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Transient server hiccup: back off and try again.
		drainBody(resp.Body)
		return pollOutcome{}, nil
	}

	var decoded transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		// Empty or malformed body while the job settles: transient.
		return pollOutcome{}, nil
	}

	switch strings.ToLower(decoded.Status) {
	case "ready":
		if decoded.Transcription == "" {
			return pollOutcome{}, nil
		}
		return pollOutcome{terminal: true, status: domain.JobStatusReady, text: decoded.Transcription}, nil
	case "error":
		message := decoded.Error
		if message == "" {
			message = "transcription failed"
		}
		return pollOutcome{terminal: true, status: domain.JobStatusError, message: message}, nil
	default:
		// "processing" and anything unrecognized: keep waiting.
		return pollOutcome{}, nil
	}
}

// deliver hands the terminal job to the consumer unless cancelled in the
// meantime.
func (p *Poller) deliver(job domain.Job) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancelled {
		return
	}
	p.result <- job
}
