// Package llm is a small client for OpenAI-compatible chat completion APIs
// (OpenRouter by default) with memoization, per-attempt timeouts, retries and
// request pacing.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jj82931/Cost-of-Living-saver/pkg/constants"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Error codes carried by *Error.
const (
	CodeNoAPIKey      = "no_api_key"
	CodeHTTPError     = "http_error"
	CodeTimeout       = "timeout"
	CodeRequestFailed = "request_failed"
)

// ErrMissingAPIKey matches (via errors.Is) the error returned when no API key
// is configured.
var ErrMissingAPIKey = errors.New("missing OPENROUTER_API_KEY")

// Error is returned for every failed generation. Status is the HTTP status
// when one was received, 401 for a missing key and 0 otherwise.
type Error struct {
	Message string
	Status  int
	Code    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("llm %s: %s", e.Code, e.Message)
}

// Is lets errors.Is(err, ErrMissingAPIKey) match a no_api_key error.
func (e *Error) Is(target error) bool {
	return target == ErrMissingAPIKey && e.Code == CodeNoAPIKey
}

// Message is one chat turn. Role is system, user or assistant.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request describes a single generation. Zero values take the client
// defaults; Temperature is a pointer so an explicit 0 is honoured. A
// positive CacheTTL memoizes the response for that long.
type Request struct {
	Model       string
	Messages    []Message
	Temperature *float64
	MaxTokens   int
	CacheTTL    time.Duration
}

// Usage is the token accounting reported by the provider, when present.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// Response is a generated completion.
type Response struct {
	Text   string `json:"text"`
	Model  string `json:"model"`
	Usage  *Usage `json:"usage,omitempty"`
	Cached bool   `json:"cached,omitempty"`
}

// Options configure a Client.
type Options struct {
	BaseURL string
	APIKey  string
	// Site and App are sent as HTTP-Referer and X-Title when set.
	Site string
	App  string

	Model       string
	Temperature float64
	MaxTokens   int

	Timeout time.Duration
	Retries int
	Backoff time.Duration

	// RequestsPerMinute paces outgoing requests; zero disables pacing.
	RequestsPerMinute int

	HTTPClient *http.Client
	Logger     *zap.Logger
}

// DefaultOptions returns the built-in defaults overlaid with the
// OPENROUTER_* environment variables.
func DefaultOptions() Options {
	opts := Options{
		Model:       constants.DefaultLLMModel,
		Temperature: constants.DefaultLLMTemperature,
		MaxTokens:   constants.DefaultLLMMaxTokens,
		Timeout:     time.Duration(constants.DefaultLLMTimeoutMillis) * time.Millisecond,
		Retries:     constants.DefaultLLMRetries,
		Backoff:     time.Duration(constants.DefaultLLMBackoffMillis) * time.Millisecond,
	}
	opts = opts.WithEnv()
	if opts.BaseURL == "" {
		opts.BaseURL = constants.DefaultLLMBaseURL
	}
	return opts
}

// WithEnv fills empty connection settings from the environment.
func (o Options) WithEnv() Options {
	if o.BaseURL == "" {
		o.BaseURL = os.Getenv("OPENROUTER_BASE_URL")
	}
	if o.APIKey == "" {
		o.APIKey = os.Getenv("OPENROUTER_API_KEY")
	}
	if o.Site == "" {
		o.Site = os.Getenv("OPENROUTER_SITE")
	}
	if o.App == "" {
		o.App = os.Getenv("OPENROUTER_APP")
	}
	return o
}

type cacheEntry struct {
	value     Response
	expiresAt time.Time
}

// Client talks to a chat completion endpoint. It is safe for concurrent use.
type Client struct {
	opts    Options
	http    *http.Client
	logger  *zap.Logger
	limiter *rate.Limiter
	now     func() time.Time

	mu   sync.Mutex
	memo map[string]cacheEntry
}

// NewClient builds a client, filling unset options with defaults.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = constants.DefaultLLMBaseURL
	}
	if opts.Model == "" {
		opts.Model = constants.DefaultLLMModel
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = constants.DefaultLLMMaxTokens
	}
	if opts.Timeout <= 0 {
		opts.Timeout = time.Duration(constants.DefaultLLMTimeoutMillis) * time.Millisecond
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.Backoff < 0 {
		opts.Backoff = 0
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	var limiter *rate.Limiter
	if opts.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(opts.RequestsPerMinute)/60.0), 1)
	}

	return &Client{
		opts:    opts,
		http:    httpClient,
		logger:  logger,
		limiter: limiter,
		now:     time.Now,
		memo:    make(map[string]cacheEntry),
	}
}

// ClearCache drops all memoized responses.
func (c *Client) ClearCache() {
	c.mu.Lock()
	c.memo = make(map[string]cacheEntry)
	c.mu.Unlock()
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// GenerateText returns a completion for req. A fresh memoized response is
// returned without contacting the provider, even when no API key is set.
func (c *Client) GenerateText(ctx context.Context, req Request) (Response, error) {
	body := chatRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		Temperature: c.opts.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if body.Model == "" {
		body.Model = c.opts.Model
	}
	if req.Temperature != nil {
		body.Temperature = *req.Temperature
	}
	if body.MaxTokens <= 0 {
		body.MaxTokens = c.opts.MaxTokens
	}

	key := cacheKey(body)
	if cached, ok := c.lookup(key); ok {
		c.logger.Debug("serving memoized completion",
			zap.String("op", "llm.GenerateText"),
			zap.String("model", cached.Model),
		)
		cached.Cached = true
		return cached, nil
	}

	if c.opts.APIKey == "" {
		return Response{}, &Error{Message: ErrMissingAPIKey.Error(), Status: http.StatusUnauthorized, Code: CodeNoAPIKey}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return Response{}, &Error{Message: fmt.Sprintf("encode request: %v", err), Code: CodeRequestFailed}
	}
	url := strings.TrimSuffix(c.opts.BaseURL, "/") + "/chat/completions"

	var lastErr error
	for attempt := 0; attempt <= c.opts.Retries; attempt++ {
		if attempt > 0 {
			wait := c.opts.Backoff * time.Duration(attempt)
			select {
			case <-ctx.Done():
				return Response{}, ctx.Err()
			case <-time.After(wait):
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return Response{}, fmt.Errorf("limiter wait error: %w", err)
			}
		}

		resp, err := c.attempt(ctx, url, payload, body.Model)
		if err == nil {
			if req.CacheTTL > 0 {
				c.store(key, resp, req.CacheTTL)
			}
			return resp, nil
		}
		if ctx.Err() != nil {
			return Response{}, ctx.Err()
		}

		lastErr = err
		c.logger.Warn("chat completion attempt failed",
			zap.String("op", "llm.GenerateText"),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}

	var llmErr *Error
	if errors.As(lastErr, &llmErr) {
		return Response{}, llmErr
	}
	msg := "LLM request failed"
	if lastErr != nil {
		msg = lastErr.Error()
	}
	return Response{}, &Error{Message: msg, Code: CodeRequestFailed}
}

func (c *Client) attempt(ctx context.Context, url string, payload []byte, model string) (Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return Response{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	if c.opts.Site != "" {
		httpReq.Header.Set("HTTP-Referer", c.opts.Site)
	}
	if c.opts.App != "" {
		httpReq.Header.Set("X-Title", c.opts.App)
	}

	res, err := c.http.Do(httpReq)
	if err != nil {
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return Response{}, &Error{Message: "timeout", Code: CodeTimeout}
		}
		return Response{}, err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return Response{}, &Error{Message: "timeout", Code: CodeTimeout}
		}
		return Response{}, err
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return Response{}, &Error{
			Message: fmt.Sprintf("chat completion error: %d %s", res.StatusCode, strings.TrimSpace(string(raw))),
			Status:  res.StatusCode,
			Code:    CodeHTTPError,
		}
	}

	var decoded chatResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}

	out := Response{Model: decoded.Model}
	if out.Model == "" {
		out.Model = model
	}
	if len(decoded.Choices) > 0 {
		out.Text = decoded.Choices[0].Message.Content
	}
	if decoded.Usage != nil {
		out.Usage = &Usage{
			PromptTokens:     decoded.Usage.PromptTokens,
			CompletionTokens: decoded.Usage.CompletionTokens,
			TotalTokens:      decoded.Usage.TotalTokens,
		}
	}
	return out, nil
}

func (c *Client) lookup(key string) (Response, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.memo[key]
	if !ok {
		return Response{}, false
	}
	if !entry.expiresAt.After(c.now()) {
		delete(c.memo, key)
		return Response{}, false
	}
	return entry.value, true
}

func (c *Client) store(key string, resp Response, ttl time.Duration) {
	c.mu.Lock()
	c.memo[key] = cacheEntry{value: resp, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
}

// cacheKey is model|temperature|maxTokens|role:content lines.
func cacheKey(body chatRequest) string {
	lines := make([]string, len(body.Messages))
	for i, m := range body.Messages {
		lines[i] = m.Role + ":" + m.Content
	}
	return strings.Join([]string{
		body.Model,
		strconv.FormatFloat(body.Temperature, 'f', -1, 64),
		strconv.Itoa(body.MaxTokens),
		strings.Join(lines, "\n"),
	}, "|")
}
