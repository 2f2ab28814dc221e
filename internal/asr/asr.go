package asr

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/net/http2"

	"github.com/itsaibarr/glaido-free/internal/config"
)

// RetryExhaustedError reports that every upload attempt failed.
type RetryExhaustedError struct {
	Attempts int
	Last     error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("transcription failed after %d attempts: %v", e.Attempts, e.Last)
}

func (e *RetryExhaustedError) Unwrap() error { return e.Last }

// Client uploads recorded audio to an OpenAI-compatible transcription
// endpoint and returns the plain-text transcript.
type Client struct {
	cfg        config.Config
	httpClient *http.Client
	log        *slog.Logger
}

// New creates a transcription client.
func New(cfg config.Config, httpClient *http.Client, log *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.RequestTimeout}
	}
	return &Client{cfg: cfg, httpClient: httpClient, log: log.With("component", "asr")}
}

// Transcribe uploads the audio artifact, retrying with exponential backoff.
// With response_format=text the response body is the transcript itself.
func (c *Client) Transcribe(ctx context.Context, filePath string) (string, error) {
	if c.cfg.APIEndpoint == "" {
		return "", fmt.Errorf("API endpoint is empty")
	}

	delay := c.cfg.RetryBaseDelay
	var lastErr error

	for attempt := 1; ; attempt++ {
		text, err := c.doUpload(ctx, filePath)
		if err == nil {
			return text, nil
		}
		lastErr = err
		c.log.Warn("upload attempt failed", "attempt", attempt, "err", err)

		if ctxErr := ctx.Err(); ctxErr != nil {
			// The deadline, not the server, ended the session; report that.
			return "", &RetryExhaustedError{Attempts: attempt, Last: ctxErr}
		}
		if attempt >= c.cfg.MaxRetry {
			return "", &RetryExhaustedError{Attempts: attempt, Last: lastErr}
		}
		select {
		case <-ctx.Done():
			return "", &RetryExhaustedError{Attempts: attempt, Last: ctx.Err()}
		case <-time.After(delay):
		}
		delay *= 2
	}
}

func (c *Client) doUpload(ctx context.Context, filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("copy artifact: %w", err)
	}
	_ = writer.WriteField("model", c.cfg.Model)
	_ = writer.WriteField("response_format", "text")
	_ = writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIEndpoint, body)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("User-Agent", "glaido/1.0")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	c.log.Debug("upload finished", "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}
	return string(respBody), nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// NewHTTPClient builds the pooled transport shared by uploads.
func NewHTTPClient(cfg config.Config) *http.Client {
	tr := &http.Transport{
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if cfg.EnableHTTP2 {
		_ = http2.ConfigureTransport(tr)
	}
	return &http.Client{
		Transport: tr,
		Timeout:   cfg.RequestTimeout,
	}
}
