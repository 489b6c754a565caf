package openai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"nlp_qa/completion"
)

const (
	DefaultTimeout = 30 * time.Second

	// maxBodyBytes caps how much of a response body is read.
	maxBodyBytes = 1 << 20
)

type Config struct {
	Endpoint string
	APIKey   string
	// Timeout bounds a whole request. Zero or negative means DefaultTimeout.
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Service calls an OpenAI-compatible chat completion endpoint.
type Service struct {
	client   *http.Client
	endpoint string
	apiKey   string
	timeout  time.Duration
	logger   *slog.Logger
}

func New(cfg Config) *Service {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		client:   client,
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		timeout:  timeout,
		logger:   logger,
	}
}

// Complete sends req.Question as the only user message and returns the
// trimmed content of the first choice. It makes exactly one attempt.
func (s *Service) Complete(ctx context.Context, req *completion.CompletionRequest) (string, error) {
	if s.apiKey == "" {
		return "", &completion.Error{Kind: completion.KindMissingCredential}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	upstreamReq, err := s.buildUpstreamRequest(ctx, req)
	if err != nil {
		return "", &completion.Error{Kind: completion.KindConnection, Detail: err.Error(), Err: err}
	}

	s.logger.Info("sending completion request", "endpoint", s.endpoint, "model", req.Model)
	start := time.Now()

	resp, err := s.client.Do(upstreamReq)
	if err != nil {
		s.logger.Error("completion request failed", "error", err, "elapsed", time.Since(start))
		return "", transportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		s.logger.Error("fail to read completion response", "error", err)
		return "", transportError(err)
	}
	s.logger.Info("completion response received", "status", resp.StatusCode, "bytes", len(body), "elapsed", time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return "", &completion.Error{
			Kind:       completion.KindStatus,
			StatusCode: resp.StatusCode,
			Detail:     string(body),
		}
	}

	return parseResponse(body)
}

func (s *Service) buildUpstreamRequest(ctx context.Context, req *completion.CompletionRequest) (*http.Request, error) {
	chatReq := ChatCompletionRequest{
		Model: req.Model,
		Messages: []Message{
			{
				Role:    "user",
				Content: req.Question,
			},
		},
		MaxTokens: req.MaxTokens,
		Stream:    false,
	}
	if temperature, ok := req.Temperature.Get(); ok {
		chatReq.Temperature = &temperature
	}

	reqBodyBytes, err := sonic.Marshal(chatReq)
	if err != nil {
		return nil, fmt.Errorf("fail to marshal completion request: %w", err)
	}
	s.logger.Debug("completion request body", "body", string(reqBodyBytes))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(reqBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("fail to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)

	return httpReq, nil
}

func parseResponse(body []byte) (string, error) {
	var resp ChatCompletionResponse
	if err := sonic.Unmarshal(body, &resp); err != nil {
		return "", &completion.Error{Kind: completion.KindSchema, Detail: string(body), Err: err}
	}

	if len(resp.Choices) > 0 {
		return strings.TrimSpace(resp.Choices[0].Message.Content), nil
	}
	if resp.Error != nil {
		return "", &completion.Error{Kind: completion.KindUpstream, Detail: describeError(resp.Error)}
	}
	return "", &completion.Error{Kind: completion.KindSchema, Detail: string(body)}
}

// describeError flattens a provider error field into one line.
func describeError(v any) string {
	switch e := v.(type) {
	case string:
		return e
	case map[string]any:
		if msg, ok := e["message"].(string); ok && msg != "" {
			return msg
		}
	}
	raw, err := sonic.MarshalString(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return raw
}

func transportError(err error) *completion.Error {
	kind := completion.KindConnection
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = completion.KindTimeout
	}
	return &completion.Error{Kind: kind, Detail: err.Error(), Err: err}
}

var _ completion.Service = (*Service)(nil)
