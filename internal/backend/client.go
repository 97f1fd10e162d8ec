// Package backend talks to the remote transcription service: multipart
// audio upload, status polling with adaptive backoff, and the chat
// follow-up call.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	// Upload tolerates a file that has not been fully flushed yet: the read
	// is retried a bounded number of times before failing with an I/O error.
	uploadReadAttempts = 5
	uploadReadDelay    = 100 * time.Millisecond

	requestTimeout = 30 * time.Second
)

// Client performs all HTTP calls against one backend base URL.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client

	pollTimeout time.Duration
	readDelay   time.Duration
}

// NewClient creates a client for the given base URL. pollTimeout bounds each
// transcription poll loop; zero selects the default.
func NewClient(baseURL, token string, pollTimeout time.Duration) *Client {
	if pollTimeout <= 0 {
		pollTimeout = DefaultPollTimeout
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		token:       token,
		httpClient:  &http.Client{Timeout: requestTimeout},
		pollTimeout: pollTimeout,
		readDelay:   uploadReadDelay,
	}
}

// NewClientForTests creates a client with injectable HTTP client and delays.
func NewClientForTests(baseURL string, httpClient *http.Client, pollTimeout, readDelay time.Duration) *Client {
	c := NewClient(baseURL, "", pollTimeout)
	if httpClient != nil {
		c.httpClient = httpClient
	}
	if readDelay > 0 {
		c.readDelay = readDelay
	}
	return c
}

// uploadResponse is the upload endpoint's reply.
type uploadResponse struct {
	RecordingID string `json:"recording_id"`
}

// transcriptionResponse is one poll endpoint reply.
type transcriptionResponse struct {
	Status        string `json:"status"`
	Transcription string `json:"transcription"`
	Error         string `json:"error"`
}

// chatResponse is the chat endpoint's reply.
type chatResponse struct {
	Answer string `json:"answer"`
}

// Upload posts the audio file as a multipart body and returns the job id
// assigned by the server. All failures are terminal for the upload: the
// caller decides whether to retry the whole transaction.
func (c *Client) Upload(ctx context.Context, filePath string) (string, error) {
	audio, err := c.readAudio(filePath)
	if err != nil {
		return "", err
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("audio", "audio.wav")
	if err != nil {
		return "", fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("build multipart body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("build multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/audio", body)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &ServerError{Status: resp.StatusCode}
	}

	var decoded uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", &DecodeError{Err: err}
	}
	if decoded.RecordingID == "" {
		return "", &DecodeError{Err: fmt.Errorf("response carries no recording_id")}
	}
	return decoded.RecordingID, nil
}

// Ask posts a transcribed question to the chat endpoint and returns the
// markdown answer.
func (c *Client) Ask(ctx context.Context, question string) (string, error) {
	payload, err := json.Marshal(map[string]string{"question": question})
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &ServerError{Status: resp.StatusCode}
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", &DecodeError{Err: err}
	}
	if decoded.Answer == "" {
		return "", &DecodeError{Err: fmt.Errorf("response carries no answer")}
	}
	return decoded.Answer, nil
}

// readAudio reads the recording, retrying while the file is still being
// finalized by the audio subsystem.
func (c *Client) readAudio(filePath string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < uploadReadAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(c.readDelay)
		}

		data, err := os.ReadFile(filePath)
		if err != nil {
			lastErr = err
			continue
		}
		if len(data) == 0 {
			lastErr = ErrEmptyRecording
			continue
		}
		return data, nil
	}
	return nil, fmt.Errorf("read recording %s: %w", filePath, lastErr)
}

// authorize attaches the bearer token when one is configured.
func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// drainBody discards a response body so the connection can be reused.
func drainBody(r io.Reader) {
	_, _ = io.Copy(io.Discard, r)
}
