package backend

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"push-to-type/internal/domain"
)

func TestNextInterval(t *testing.T) {
	steps := []time.Duration{
		100 * time.Millisecond,
		150 * time.Millisecond,
		225 * time.Millisecond,
		337500 * time.Microsecond,
	}
	for i := 0; i < len(steps)-1; i++ {
		if got := NextInterval(steps[i]); got != steps[i+1] {
			t.Errorf("NextInterval(%v) = %v, want %v", steps[i], got, steps[i+1])
		}
	}
	if got := NextInterval(4 * time.Second); got != MaxPollInterval {
		t.Errorf("NextInterval(4s) = %v, want cap %v", got, MaxPollInterval)
	}
	if got := NextInterval(MaxPollInterval); got != MaxPollInterval {
		t.Errorf("NextInterval(cap) = %v, want cap", got)
	}
}

func awaitResult(t *testing.T, p *Poller) domain.Job {
	t.Helper()
	select {
	case job := <-p.Result():
		return job
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for poller result")
		return domain.Job{}
	}
}

func TestPollerReady(t *testing.T) {
	var polls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/transcription/rec-7" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if polls.Add(1) < 3 {
			w.Write([]byte(`{"status":"processing"}`))
			return
		}
		w.Write([]byte(`{"status":"ready","transcription":"hello world"}`))
	}))
	defer server.Close()

	client := NewClientForTests(server.URL, nil, 10*time.Second, time.Millisecond)
	job := awaitResult(t, client.PollTranscription("rec-7"))

	if job.Status != domain.JobStatusReady {
		t.Fatalf("status = %q, want ready", job.Status)
	}
	if job.ResultText != "hello world" {
		t.Errorf("result = %q, want 'hello world'", job.ResultText)
	}
	if got := polls.Load(); got != 3 {
		t.Errorf("polls = %d, want 3", got)
	}
}

func TestPollerTimeout(t *testing.T) {
	var polls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		polls.Add(1)
		w.Write([]byte(`{"status":"processing"}`))
	}))
	defer server.Close()

	client := NewClientForTests(server.URL, nil, time.Second, time.Millisecond)
	job := awaitResult(t, client.PollTranscription("rec-7"))

	if job.Status != domain.JobStatusTimeout {
		t.Fatalf("status = %q, want timeout", job.Status)
	}
	// Cycles fire at 100, 250, 475, 812.5ms; the next one crosses the 1s
	// deadline and polls no more.
	if got := polls.Load(); got < 3 || got > 5 {
		t.Errorf("polls = %d, want ~4", got)
	}
}

func TestPollerUnknownJob(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClientForTests(server.URL, nil, 10*time.Second, time.Millisecond)
	job := awaitResult(t, client.PollTranscription("rec-gone"))

	if job.Status != domain.JobStatusError {
		t.Fatalf("status = %q, want error", job.Status)
	}
	if !strings.Contains(job.ErrorMessage, "unknown job") {
		t.Errorf("message = %q, want mention of unknown job", job.ErrorMessage)
	}
}

func TestPollerTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections immediately

	client := NewClientForTests(server.URL, nil, 10*time.Second, time.Millisecond)
	job := awaitResult(t, client.PollTranscription("rec-7"))

	if job.Status != domain.JobStatusError {
		t.Fatalf("status = %q, want error", job.Status)
	}
	if !strings.Contains(job.ErrorMessage, "backend unreachable") {
		t.Errorf("message = %q, want transport failure surfaced", job.ErrorMessage)
	}
}

func TestPollerTransientServerError(t *testing.T) {
	var polls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch polls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusBadGateway)
		case 2:
			// Empty body while the job settles.
		default:
			w.Write([]byte(`{"status":"ready","transcription":"ok"}`))
		}
	}))
	defer server.Close()

	client := NewClientForTests(server.URL, nil, 10*time.Second, time.Millisecond)
	job := awaitResult(t, client.PollTranscription("rec-7"))

	if job.Status != domain.JobStatusReady {
		t.Fatalf("status = %q, want ready after transient failures", job.Status)
	}
	if job.ResultText != "ok" {
		t.Errorf("result = %q, want ok", job.ResultText)
	}
}

func TestPollerErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"error","error":"no speech detected"}`))
	}))
	defer server.Close()

	client := NewClientForTests(server.URL, nil, 10*time.Second, time.Millisecond)
	job := awaitResult(t, client.PollTranscription("rec-7"))

	if job.Status != domain.JobStatusError {
		t.Fatalf("status = %q, want error", job.Status)
	}
	if job.ErrorMessage != "no speech detected" {
		t.Errorf("message = %q, want server message", job.ErrorMessage)
	}
}

func TestPollerCancel(t *testing.T) {
	polled := make(chan struct{}, 16)
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		polled <- struct{}{}
		<-release
		w.Write([]byte(`{"status":"ready","transcription":"late"}`))
	}))
	defer server.Close()

	client := NewClientForTests(server.URL, nil, 10*time.Second, time.Millisecond)
	p := client.PollTranscription("rec-7")

	select {
	case <-polled:
	case <-time.After(5 * time.Second):
		t.Fatal("poller never issued a request")
	}
	// Cancel while the request is in flight; the late response must be
	// swallowed.
	p.Cancel()
	p.Cancel() // idempotent
	close(release)

	select {
	case job := <-p.Result():
		t.Fatalf("unexpected result after cancel: %+v", job)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestPollerCancelBeforeFirstCycle(t *testing.T) {
	var polls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		polls.Add(1)
		w.Write([]byte(`{"status":"ready","transcription":"late"}`))
	}))
	defer server.Close()

	client := NewClientForTests(server.URL, nil, 10*time.Second, time.Millisecond)
	p := client.PollTranscription("rec-7")
	p.Cancel()

	time.Sleep(250 * time.Millisecond)
	if got := polls.Load(); got != 0 {
		t.Errorf("polls after immediate cancel = %d, want 0", got)
	}
	select {
	case job := <-p.Result():
		t.Fatalf("unexpected result after cancel: %+v", job)
	default:
	}
}

func TestPollerReadyOverridesEmptyTranscription(t *testing.T) {
	var polls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if polls.Add(1) == 1 {
			w.Write([]byte(`{"status":"ready"}`))
			return
		}
		w.Write([]byte(`{"status":"ready","transcription":"now"}`))
	}))
	defer server.Close()

	client := NewClientForTests(server.URL, nil, 10*time.Second, time.Millisecond)
	job := awaitResult(t, client.PollTranscription("rec-7"))

	if job.ResultText != "now" {
		t.Errorf("result = %q, want 'now' after empty-ready retry", job.ResultText)
	}
}
