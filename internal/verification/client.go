package verification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// Client talks to the external certificate verification service.
type Client interface {
	// Verify submits a certificate file and blocks until the service answers.
	// It is never retried automatically; a retry is a new explicit submission.
	Verify(ctx context.Context, req SubmitRequest) (*Result, error)
	// Lookup fetches a previously issued result by its verification id.
	Lookup(ctx context.Context, verificationID string) (*Result, error)
	// Health probes the service liveness endpoint with a short deadline.
	Health(ctx context.Context) error
	// DemoMode reports whether results come from the local generator rather
	// than the real service.
	DemoMode() bool
}

// ServiceError is a non-2xx answer from the verification service. When the
// service supplied a detail message it is surfaced verbatim.
type ServiceError struct {
	StatusCode int
	Detail     string
}

func (e *ServiceError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("verification service returned status %d", e.StatusCode)
}

type httpClient struct {
	baseURL      string
	client       *http.Client
	healthClient *http.Client
}

// NewHTTPClient builds a client for a configured verification endpoint.
// requestTimeout bounds the submission and lookup calls; healthTimeout bounds
// the liveness probe.
func NewHTTPClient(baseURL string, requestTimeout, healthTimeout time.Duration) Client {
	if requestTimeout <= 0 {
		requestTimeout = 120 * time.Second
	}
	if healthTimeout <= 0 {
		healthTimeout = 5 * time.Second
	}
	return &httpClient{
		baseURL:      strings.TrimRight(baseURL, "/"),
		client:       &http.Client{Timeout: requestTimeout},
		healthClient: &http.Client{Timeout: healthTimeout},
	}
}

func (c *httpClient) DemoMode() bool { return false }

func (c *httpClient) Verify(ctx context.Context, req SubmitRequest) (*Result, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", req.FileName)
	if err != nil {
		return nil, fmt.Errorf("verification: build multipart body: %w", err)
	}
	if _, err := part.Write(req.FileContent); err != nil {
		return nil, fmt.Errorf("verification: build multipart body: %w", err)
	}
	if err := writer.WriteField("document_type", string(req.DocumentType)); err != nil {
		return nil, fmt.Errorf("verification: build multipart body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("verification: build multipart body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/verify", &body)
	if err != nil {
		return nil, fmt.Errorf("verification: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("verification: submit certificate: %w", err)
	}
	defer resp.Body.Close()

	return decodeResult(resp)
}

func (c *httpClient) Lookup(ctx context.Context, verificationID string) (*Result, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/verify/"+verificationID, nil)
	if err != nil {
		return nil, fmt.Errorf("verification: build request: %w", err)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("verification: lookup %s: %w", verificationID, err)
	}
	defer resp.Body.Close()

	return decodeResult(resp)
}

func (c *httpClient) Health(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("verification: build request: %w", err)
	}

	resp, err := c.healthClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("verification: health probe: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &ServiceError{StatusCode: resp.StatusCode}
	}
	return nil
}

func decodeResult(resp *http.Response) (*Result, error) {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		svcErr := &ServiceError{StatusCode: resp.StatusCode}
		// The service may include {"detail": "..."} on errors.
		var errBody struct {
			Detail string `json:"detail"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if json.Unmarshal(raw, &errBody) == nil {
			svcErr.Detail = errBody.Detail
		}
		return nil, svcErr
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("verification: decode response: %w", err)
	}
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now()
	}
	return &result, nil
}
