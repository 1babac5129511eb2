// Package ollama implements the Generator port against the Ollama generate
// API. Responses are streamed as newline-delimited JSON chunks; the client
// buffers them and returns only the assembled final text, so callers see a
// single blocking call.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ericfisherdev/reviewbot/internal/domain/port/driven"
)

const (
	generatePath = "/api/generate"

	// defaultTimeout covers the whole streamed generation. Local model
	// inference on a large diff can take minutes.
	defaultTimeout = 5 * time.Minute

	// scanBufferSize caps a single NDJSON line. Chunks are small, but the
	// default bufio limit of 64KB is too tight for long final chunks that
	// carry timing metadata.
	scanBufferSize = 1024 * 1024
)

// Compile-time interface satisfaction check.
var _ driven.Generator = (*Client)(nil)

// Client implements the driven.Generator port for an Ollama-compatible
// generation service.
type Client struct {
	baseURL      string
	defaultModel string
	client       *http.Client
}

// NewClient creates an Ollama client for the given host URL. A non-positive
// timeout selects the default.
func NewClient(baseURL, defaultModel string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		defaultModel: defaultModel,
		client:       &http.Client{Timeout: timeout},
	}
}

// Generate submits prompt to the generate endpoint and returns the complete
// generated text. An empty model selects the client's default model.
func (c *Client) Generate(ctx context.Context, prompt, model string) (string, error) {
	if model == "" {
		model = c.defaultModel
	}

	reqBody, err := json.Marshal(generateRequest{
		Model:  model,
		Prompt: prompt,
		Stream: true,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+generatePath, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("building generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling %s with model %s: %w", generatePath, model, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", c.errorFromResponse(resp, model)
	}

	var text strings.Builder

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), scanBufferSize)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var chunk generateChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			return "", fmt.Errorf("decoding generate chunk from model %s: %w", model, err)
		}

		text.WriteString(chunk.Response)
		if chunk.Done {
			return text.String(), nil
		}
	}

	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("reading generate stream from model %s: %w", model, err)
	}

	return "", fmt.Errorf("generate stream from model %s ended before completion", model)
}

// errorFromResponse maps a non-success status to a *driven.RemoteError,
// preferring Ollama's {"error": ...} body when it parses.
func (c *Client) errorFromResponse(resp *http.Response, model string) error {
	message := fmt.Sprintf("HTTP %d", resp.StatusCode)

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil {
		var errResp errorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
			message = errResp.Error
		}
	}

	if resp.StatusCode == http.StatusNotFound {
		message = fmt.Sprintf("%s. Pull it with: ollama pull %s", message, model)
	}

	return &driven.RemoteError{Host: "ollama", Status: resp.StatusCode, Message: message}
}
