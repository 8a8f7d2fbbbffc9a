package dirorg

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/sirupsen/logrus"
)

// OpenAIProvider asks an OpenAI-compatible chat endpoint for a
// reorganization plan.
type OpenAIProvider struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	log     *logrus.Logger
}

type OpenAIConfig struct {
	APIKey  string
	BaseURL string // empty for api.openai.com
	Model   string
	Timeout time.Duration
	Logger  *logrus.Logger
}

func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("provider API key not configured")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("provider model not configured")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(opts...)

	return &OpenAIProvider{
		client:  &client,
		model:   cfg.Model,
		timeout: cfg.Timeout,
		log:     cfg.Logger,
	}, nil
}

func (p *OpenAIProvider) Propose(ctx context.Context, req *ProposalRequest) (*Plan, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	system := reorgPrompt
	if req.Style != "" {
		system += "\n\nAdditional style requested by the user: " + req.Style
	}

	user := req.Listing
	if req.Truncated {
		user += "\nThe listing above is partial; only propose actions for entries you can see."
	}

	p.log.Debugf("requesting proposal for %d files (%d listing bytes)", req.FileCount, len(req.Listing))
	start := time.Now()

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: p.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	})
	if err != nil {
		return nil, classifyProviderError(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return nil, &ProviderError{Kind: ProviderNetwork, Err: fmt.Errorf("empty completion")}
	}
	p.log.Debugf("proposal received in %s", time.Since(start).Round(time.Millisecond))

	return ParsePlan(resp.Choices[0].Message.Content)
}

func classifyProviderError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &ProviderError{Kind: ProviderTimeout, Err: err}
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return &ProviderError{Kind: ProviderAuth, Err: err}
		case http.StatusTooManyRequests:
			return &ProviderError{Kind: ProviderRateLimit, Err: err}
		}
	}
	if strings.Contains(err.Error(), "deadline") {
		return &ProviderError{Kind: ProviderTimeout, Err: err}
	}
	return &ProviderError{Kind: ProviderNetwork, Err: err}
}
