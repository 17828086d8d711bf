package healthscribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"scribe/internal/services"
)

// JobService defines the transcription operations the workflow consumes.
// Tests substitute fakes; the default implementation is Client.
type JobService interface {
	StartJob(ctx context.Context, input StartJobInput) (StartJobOutput, error)
	GetJob(ctx context.Context, name string) (*Job, error)
}

// Client provides access to the transcription service over HTTP.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
}

var _ JobService = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// New creates a transcription-service client.
func New(endpoint, token string, opts ...Option) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.New("transcribe endpoint required")
	}
	client := &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		token:      strings.TrimSpace(token),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// StartJob creates a remote transcription job. The raw response body is
// preserved so callers can surface unrecognized shapes verbatim.
func (c *Client) StartJob(ctx context.Context, input StartJobInput) (StartJobOutput, error) {
	if strings.TrimSpace(input.JobName) == "" {
		return StartJobOutput{}, errors.New("job name must not be empty")
	}
	body, err := json.Marshal(input)
	if err != nil {
		return StartJobOutput{}, fmt.Errorf("encode start job request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/jobs", bytes.NewReader(body))
	if err != nil {
		return StartJobOutput{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return StartJobOutput{}, services.Wrap(services.ErrExternalService, "healthscribe", "start job", "request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return StartJobOutput{}, fmt.Errorf("read start job response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return StartJobOutput{}, services.Wrap(services.ErrExternalService, "healthscribe", "start job",
			fmt.Sprintf("service returned %d: %s", resp.StatusCode, summarizeBody(raw)), nil)
	}

	out := StartJobOutput{Raw: json.RawMessage(raw)}
	var envelope jobEnvelope
	if err := json.Unmarshal(raw, &envelope); err == nil {
		out.Job = envelope.Job
	}
	return out, nil
}

// GetJob fetches the current status of a job by name.
func (c *Client) GetJob(ctx context.Context, name string) (*Job, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("job name must not be empty")
	}

	endpoint := c.endpoint + "/jobs/" + url.PathEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalService, "healthscribe", "get job", "request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read get job response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, services.Wrap(services.ErrNotFound, "healthscribe", "get job", fmt.Sprintf("job %q not found", name), nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrExternalService, "healthscribe", "get job",
			fmt.Sprintf("service returned %d: %s", resp.StatusCode, summarizeBody(raw)), nil)
	}

	var envelope jobEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode get job response: %w", err)
	}
	if envelope.Job == nil {
		return nil, services.Wrap(services.ErrExternalService, "healthscribe", "get job", "response missing job resource", nil)
	}
	return envelope.Job, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func summarizeBody(raw []byte) string {
	body := strings.TrimSpace(string(raw))
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	if body == "" {
		body = "(empty body)"
	}
	return body
}
