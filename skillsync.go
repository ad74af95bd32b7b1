// =============================================================================
// Package skillsync — One-Line Advisor Construction
// =============================================================================
// Provides a convenience entry point for creating a career advisor with
// minimal boilerplate. Delegates to llm.NewAdvisor and llm/xai internally.
//
// Usage:
//
//	import "github.com/ConWan30/skillsync-ai-platform-sub000"
//
//	advisor, err := skillsync.New()                            // key from XAI_API_KEY
//	advisor, err := skillsync.New(skillsync.WithModel("grok-3"))
//	advisor, err := skillsync.New(skillsync.WithProvider(myProvider))
//
// =============================================================================
package skillsync

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/ConWan30/skillsync-ai-platform-sub000/llm"
	"github.com/ConWan30/skillsync-ai-platform-sub000/llm/retry"
	"github.com/ConWan30/skillsync-ai-platform-sub000/llm/xai"
)

// Option configures the advisor created by New.
type Option func(*options)

type options struct {
	model    string
	baseURL  string
	timeout  time.Duration
	provider llm.Provider
	logger   *zap.Logger
	policy   *retry.Policy
	apiKey   string
}

// WithProvider sets a pre-built LLM provider, bypassing the xAI shortcut.
func WithProvider(p llm.Provider) Option {
	return func(o *options) { o.provider = p }
}

// WithAPIKey overrides the xAI API key. Defaults to the XAI_API_KEY
// environment variable.
func WithAPIKey(key string) Option {
	return func(o *options) { o.apiKey = key }
}

// WithModel overrides the model name. Defaults to grok-beta.
func WithModel(model string) Option {
	return func(o *options) { o.model = model }
}

// WithBaseURL overrides the xAI API base URL.
func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = url }
}

// WithTimeout sets the HTTP client timeout for the xAI provider.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithLogger sets a custom zap logger. Defaults to zap.NewNop().
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithRetryPolicy overrides the retry policy used for upstream calls.
func WithRetryPolicy(p *retry.Policy) Option {
	return func(o *options) { o.policy = p }
}

// New creates a ready-to-use [llm.Advisor] with minimal configuration.
// Without options it builds an xAI provider whose key is read from the
// XAI_API_KEY environment variable.
func New(opts ...Option) (*llm.Advisor, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	provider := o.provider
	if provider == nil {
		key := o.apiKey
		if key == "" {
			key = os.Getenv("XAI_API_KEY")
		}
		if key == "" {
			return nil, fmt.Errorf("xai api key required: set XAI_API_KEY or use WithAPIKey")
		}
		provider = xai.New(xai.Config{
			APIKey:  key,
			BaseURL: o.baseURL,
			Model:   o.model,
			Timeout: o.timeout,
		}, o.logger)
	}

	policy := o.policy
	if policy == nil {
		policy = retry.DefaultPolicy()
		policy.RetryableFunc = llm.IsRetryable
	}
	retryer := retry.NewBackoffRetryer(policy, o.logger)

	return llm.NewAdvisor(provider, retryer, nil, o.logger), nil
}
