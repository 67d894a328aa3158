// Package modelclient is the structured-output LLM capability every
// classifier calls through: given a system prompt, a user prompt, and a
// JSON schema, it returns a value conforming to the schema or a typed
// FailureKind. The concrete vendor behind it is not specified by the
// domain (spec.md §9) — Client talks to a single generic chat-completion
// endpoint over HTTP, matching the call shape of the teacher's per-vendor
// providers (x-api-key/Bearer header, *http.Client with timeout, JSON
// request/response bodies) without committing to one vendor's wire format.
package modelclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shacharon/grubroute/modelclient/schema"
)

// FailureKind is the typed failure taxonomy a Generate call may return,
// matching the classifier error taxonomy (spec.md §4.2, §7).
type FailureKind string

const (
	FailureTimeout       FailureKind = "timeout"
	FailureSchemaInvalid FailureKind = "schema-invalid"
	FailureParseError    FailureKind = "parse-error"
	FailureQuota         FailureKind = "quota"
	FailureOther         FailureKind = "other"
)

// Failure is the error type Generate returns on any non-success path.
type Failure struct {
	Kind    FailureKind
	Message string
	Cause   error
}

func (f *Failure) Error() string {
	if f.Cause != nil {
		return fmt.Sprintf("modelclient: %s: %s: %v", f.Kind, f.Message, f.Cause)
	}
	return fmt.Sprintf("modelclient: %s: %s", f.Kind, f.Message)
}

func (f *Failure) Unwrap() error { return f.Cause }

// Config configures the Client's single HTTP endpoint.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// DefaultConfig returns conservative defaults; callers still must supply
// APIKey/BaseURL/Model.
func DefaultConfig() Config {
	return Config{Timeout: 10 * time.Second}
}

// Client is the structured-output capability.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// New constructs a Client.
func New(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: timeout},
		logger: logger.With(zap.String("component", "modelclient")),
	}
}

// CallMeta is attached to every Generate call for observability: prompt
// and schema hashes plus elapsed time (spec.md §9 "hashed prompts and
// schemas").
type CallMeta struct {
	PromptVersion string
	PromptHash    string
	SchemaHash    string
	ElapsedMs     int64
}

type chatRequest struct {
	Model          string          `json:"model"`
	System         string          `json:"system"`
	User           string          `json:"user"`
	ResponseSchema json.RawMessage `json:"response_schema"`
}

type chatResponse struct {
	Output json.RawMessage `json:"output"`
	Error  *apiError       `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Generate issues one structured-output call. On success, raw holds JSON
// already validated against s. The caller still does its own
// json.Unmarshal into a concrete type, since modelclient does not know
// the classifier's Go type.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string, s *schema.JSONSchema) ([]byte, CallMeta, error) {
	start := time.Now()

	schemaHash, err := s.Hash()
	if err != nil {
		return nil, CallMeta{}, &Failure{Kind: FailureOther, Message: "schema hash", Cause: err}
	}
	promptHash := hashPrompt(systemPrompt, userPrompt)
	meta := CallMeta{PromptVersion: "v1", PromptHash: promptHash, SchemaHash: schemaHash}

	schemaJSON, err := s.ToJSON()
	if err != nil {
		return nil, meta, &Failure{Kind: FailureOther, Message: "schema marshal", Cause: err}
	}

	body, err := json.Marshal(chatRequest{
		Model:          c.cfg.Model,
		System:         systemPrompt,
		User:           userPrompt,
		ResponseSchema: schemaJSON,
	})
	if err != nil {
		return nil, meta, &Failure{Kind: FailureOther, Message: "request marshal", Cause: err}
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/v1/structured-completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, meta, &Failure{Kind: FailureOther, Message: "request build", Cause: err}
	}
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("x-api-key", c.cfg.APIKey)

	resp, err := c.http.Do(httpReq)
	meta.ElapsedMs = time.Since(start).Milliseconds()
	if err != nil {
		if ctx.Err() != nil {
			return nil, meta, &Failure{Kind: FailureTimeout, Message: "context deadline", Cause: ctx.Err()}
		}
		return nil, meta, &Failure{Kind: FailureOther, Message: "http call", Cause: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, meta, &Failure{Kind: FailureOther, Message: "read body", Cause: err}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, meta, &Failure{Kind: FailureQuota, Message: "rate limited"}
	}
	if resp.StatusCode == http.StatusGatewayTimeout || resp.StatusCode == http.StatusRequestTimeout {
		return nil, meta, &Failure{Kind: FailureTimeout, Message: fmt.Sprintf("status %d", resp.StatusCode)}
	}
	if resp.StatusCode >= 500 {
		return nil, meta, &Failure{Kind: FailureOther, Message: fmt.Sprintf("upstream status %d", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, meta, &Failure{Kind: FailureOther, Message: fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, payload)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, meta, &Failure{Kind: FailureParseError, Message: "decode response envelope", Cause: err}
	}
	if parsed.Error != nil {
		return nil, meta, &Failure{Kind: FailureOther, Message: parsed.Error.Message}
	}

	if err := schema.Validate(parsed.Output, s); err != nil {
		c.logger.Warn("structured output failed schema validation",
			zap.String("schemaHash", schemaHash), zap.Error(err))
		return nil, meta, &Failure{Kind: FailureSchemaInvalid, Message: "response does not match schema", Cause: err}
	}

	return parsed.Output, meta, nil
}

func hashPrompt(system, user string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(system))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(user))
	return fmt.Sprintf("%016x", h.Sum64())
}
