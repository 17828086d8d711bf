package mediastore

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"scribe/internal/services"
)

// MinPartSize is the smallest chunk the multipart protocol accepts for all
// parts except the last.
const MinPartSize = 5 * 1024 * 1024

// DefaultPartSize is used when no part size is configured.
const DefaultPartSize = 8 * 1024 * 1024

// ProgressFunc receives cumulative upload progress as parts complete. Values
// are monotonically non-decreasing; part numbering starts at 1.
type ProgressFunc func(loaded, part, total int64)

// UploadInput describes one payload transfer.
type UploadInput struct {
	Bucket      string
	Key         string
	Body        io.Reader
	Size        int64
	ContentType string
	Progress    ProgressFunc
}

// Uploader is the storage port the workflow consumes. Tests substitute fakes;
// the default implementation is Client.
type Uploader interface {
	Upload(ctx context.Context, input UploadInput) error
}

// Client uploads payloads to an S3-compatible storage endpoint.
type Client struct {
	endpoint   string
	token      string
	partSize   int64
	httpClient *http.Client
}

var _ Uploader = (*Client)(nil)

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

// WithPartSize overrides the multipart chunk size. Values below MinPartSize
// are raised to it.
func WithPartSize(size int64) Option {
	return func(c *Client) {
		if size > 0 {
			c.partSize = max(size, MinPartSize)
		}
	}
}

// WithTimeout overrides the default per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// New creates a storage client.
func New(endpoint, token string, opts ...Option) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.New("storage endpoint required")
	}
	client := &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		token:      strings.TrimSpace(token),
		partSize:   DefaultPartSize,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// ObjectURI returns the media location the transcription service reads from.
func ObjectURI(bucket, key string) string {
	return "s3://" + bucket + "/" + key
}

// Upload transfers the payload, choosing single-shot or multipart by size.
// On multipart failure the upload is aborted server-side before returning.
func (c *Client) Upload(ctx context.Context, input UploadInput) error {
	if strings.TrimSpace(input.Bucket) == "" {
		return errors.New("bucket must not be empty")
	}
	if strings.TrimSpace(input.Key) == "" {
		return errors.New("key must not be empty")
	}
	if input.Body == nil {
		return errors.New("body must not be nil")
	}

	if input.Size <= c.partSize {
		return c.uploadSingle(ctx, input)
	}
	return c.uploadMultipart(ctx, input)
}

func (c *Client) uploadSingle(ctx context.Context, input UploadInput) error {
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return fmt.Errorf("read payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.objectURL(input.Bucket, input.Key, nil), bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if input.ContentType != "" {
		req.Header.Set("Content-Type", input.ContentType)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrExternalService, "mediastore", "put object", "request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return services.Wrap(services.ErrExternalService, "mediastore", "put object",
			fmt.Sprintf("storage returned %d", resp.StatusCode), nil)
	}

	if input.Progress != nil {
		total := input.Size
		if total <= 0 {
			total = int64(len(data))
		}
		input.Progress(total, 1, total)
	}
	return nil
}

func (c *Client) uploadMultipart(ctx context.Context, input UploadInput) error {
	uploadID, err := c.initiate(ctx, input)
	if err != nil {
		return err
	}

	parts, err := c.uploadParts(ctx, input, uploadID)
	if err != nil {
		c.abort(ctx, input, uploadID)
		return err
	}

	if err := c.complete(ctx, input, uploadID, parts); err != nil {
		c.abort(ctx, input, uploadID)
		return err
	}
	return nil
}

type initiateResult struct {
	XMLName  xml.Name `xml:"InitiateMultipartUploadResult"`
	UploadID string   `xml:"UploadId"`
}

type completedPart struct {
	PartNumber int    `xml:"PartNumber"`
	ETag       string `xml:"ETag"`
}

type completeRequest struct {
	XMLName xml.Name        `xml:"CompleteMultipartUpload"`
	Parts   []completedPart `xml:"Part"`
}

func (c *Client) initiate(ctx context.Context, input UploadInput) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.objectURL(input.Bucket, input.Key, url.Values{"uploads": {""}}), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	if input.ContentType != "" {
		req.Header.Set("Content-Type", input.ContentType)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrExternalService, "mediastore", "initiate upload", "request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", services.Wrap(services.ErrExternalService, "mediastore", "initiate upload",
			fmt.Sprintf("storage returned %d", resp.StatusCode), nil)
	}

	var result initiateResult
	if err := xml.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode initiate response: %w", err)
	}
	if result.UploadID == "" {
		return "", services.Wrap(services.ErrExternalService, "mediastore", "initiate upload", "response missing upload id", nil)
	}
	return result.UploadID, nil
}

func (c *Client) uploadParts(ctx context.Context, input UploadInput, uploadID string) ([]completedPart, error) {
	var (
		parts  []completedPart
		loaded int64
	)
	buf := make([]byte, c.partSize)
	for partNumber := 1; ; partNumber++ {
		n, readErr := io.ReadFull(input.Body, buf)
		if readErr != nil && readErr != io.ErrUnexpectedEOF && readErr != io.EOF {
			return nil, fmt.Errorf("read part %d: %w", partNumber, readErr)
		}
		if n > 0 {
			etag, err := c.uploadPart(ctx, input, uploadID, partNumber, buf[:n])
			if err != nil {
				return nil, err
			}
			parts = append(parts, completedPart{PartNumber: partNumber, ETag: etag})
			loaded += int64(n)
			if input.Progress != nil {
				input.Progress(loaded, int64(partNumber), input.Size)
			}
		}
		if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
			break
		}
	}
	if len(parts) == 0 {
		return nil, errors.New("payload was empty")
	}
	return parts, nil
}

func (c *Client) uploadPart(ctx context.Context, input UploadInput, uploadID string, partNumber int, chunk []byte) (string, error) {
	params := url.Values{
		"partNumber": {strconv.Itoa(partNumber)},
		"uploadId":   {uploadID},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		c.objectURL(input.Bucket, input.Key, params), bytes.NewReader(chunk))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrExternalService, "mediastore", "upload part",
			fmt.Sprintf("part %d failed", partNumber), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", services.Wrap(services.ErrExternalService, "mediastore", "upload part",
			fmt.Sprintf("part %d: storage returned %d", partNumber, resp.StatusCode), nil)
	}
	return resp.Header.Get("ETag"), nil
}

func (c *Client) complete(ctx context.Context, input UploadInput, uploadID string, parts []completedPart) error {
	body, err := xml.Marshal(completeRequest{Parts: parts})
	if err != nil {
		return fmt.Errorf("encode complete request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.objectURL(input.Bucket, input.Key, url.Values{"uploadId": {uploadID}}), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/xml")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrExternalService, "mediastore", "complete upload", "request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return services.Wrap(services.ErrExternalService, "mediastore", "complete upload",
			fmt.Sprintf("storage returned %d", resp.StatusCode), nil)
	}
	return nil
}

// abort is best-effort cleanup; the original failure is what callers see.
func (c *Client) abort(ctx context.Context, input UploadInput, uploadID string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.objectURL(input.Bucket, input.Key, url.Values{"uploadId": {uploadID}}), nil)
	if err != nil {
		return
	}
	c.authorize(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return
	}
	resp.Body.Close()
}

func (c *Client) objectURL(bucket, key string, params url.Values) string {
	escaped := make([]string, 0, 4)
	for _, segment := range strings.Split(key, "/") {
		escaped = append(escaped, url.PathEscape(segment))
	}
	raw := c.endpoint + "/" + url.PathEscape(bucket) + "/" + strings.Join(escaped, "/")
	if len(params) > 0 {
		raw += "?" + params.Encode()
	}
	return raw
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
