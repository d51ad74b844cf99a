package studypartner

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

const (
	completionTemperature = 0.5
	completionMaxTokens   = 2048

	// Transient-failure retry policy: rate limits back off exponentially
	// starting at rateLimitBackoff, timeouts retry after a short fixed
	// delay at most timeoutRetries extra times.
	rateLimitBackoff = 2 * time.Second
	timeoutRetries   = 2
	timeoutDelay     = 1 * time.Second
)

// CompletionClient submits prompts to the chat-completion service and
// classifies failures. On success it returns the model's raw content
// unmodified; it never parses the payload itself.
type CompletionClient struct {
	client     *openai.Client
	model      string
	maxRetries int
	delay      func(time.Duration)
	log        zerolog.Logger
}

// CompletionOption customizes a CompletionClient.
type CompletionOption func(*CompletionClient)

// WithDelay replaces the function used to sleep between retries. Tests
// substitute a no-op to simulate N failures then a success without
// waiting.
func WithDelay(f func(time.Duration)) CompletionOption {
	return func(c *CompletionClient) { c.delay = f }
}

// WithMaxRetries bounds the total attempts made on rate-limit failures.
func WithMaxRetries(n int) CompletionOption {
	return func(c *CompletionClient) {
		if n > 0 {
			c.maxRetries = n
		}
	}
}

// NewCompletionClient builds a client from configuration. BaseURL may
// point at a proxy or a test server.
func NewCompletionClient(cfg *Config, logger zerolog.Logger, opts ...CompletionOption) *CompletionClient {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}

	c := &CompletionClient{
		client:     openai.NewClientWithConfig(oc),
		model:      cfg.Model,
		maxRetries: cfg.MaxRetries,
		delay:      time.Sleep,
		log:        logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxRetries <= 0 {
		c.maxRetries = 3
	}
	return c
}

// Complete performs one chat completion, retrying transient failures up
// to the configured bound. Terminal failures are returned immediately
// as classified PipelineErrors.
func (c *CompletionClient) Complete(ctx context.Context, prompt string) (string, error) {
	rateTries := 0
	timeoutTries := 0

	for attempt := 1; ; attempt++ {
		content, err := c.once(ctx, prompt)
		if err == nil {
			return content, nil
		}

		perr := classify(err)
		if !perr.retryable() {
			return "", perr
		}

		switch perr.Code {
		case ErrCodeRateLimit:
			rateTries++
			if rateTries >= c.maxRetries {
				return "", perr
			}
			wait := rateLimitBackoff << (rateTries - 1)
			c.log.Warn().Int("attempt", attempt).Dur("backoff", wait).Msg("rate limited, backing off")
			c.delay(wait)

		case ErrCodeTimeout:
			timeoutTries++
			if timeoutTries > timeoutRetries {
				return "", perr
			}
			c.log.Warn().Int("attempt", attempt).Msg("request timed out, retrying")
			c.delay(timeoutDelay)
		}
	}
}

func (c *CompletionClient) once(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: completionTemperature,
		MaxTokens:   completionMaxTokens,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errParse(errors.New("response contained no choices"))
	}
	return resp.Choices[0].Message.Content, nil
}

// classify maps a transport-level error to the failure taxonomy.
// Priority: auth, permission/billing, rate limit, other non-2xx,
// timeout, generic transport.
func classify(err error) *PipelineError {
	var perr *PipelineError
	if errors.As(err, &perr) {
		return perr
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.HTTPStatusCode, apiErr.Message, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(reqErr.HTTPStatusCode, "", err)
	}

	if isTimeout(err) {
		return errTimeout(err)
	}
	return errTransport(err)
}

func classifyStatus(status int, serverMsg string, cause error) *PipelineError {
	switch status {
	case http.StatusUnauthorized:
		return errAuth(cause)
	case http.StatusPaymentRequired, http.StatusForbidden:
		return errBilling(cause)
	case http.StatusTooManyRequests:
		return errRateLimit(cause)
	default:
		return errTransportStatus(status, serverMsg, cause)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}
