package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/mover-verification/internal/infrastructure/resilience"
)

const (
	defaultBaseURL     = "https://api.openai.com/v1"
	defaultVisionModel = "gpt-4o-mini"
	defaultTextModel   = "gpt-4o-mini"
	defaultMaxTokens   = 800
)

type Options struct {
	BaseURL     string
	APIKey      string
	VisionModel string
	TextModel   string
	Timeout     time.Duration
	Executor    *resilience.Executor
}

// Client talks to an OpenAI-compatible Chat Completions endpoint.
type Client struct {
	baseURL     string
	apiKey      string
	visionModel string
	textModel   string
	httpClient  *http.Client
	executor    *resilience.Executor
}

func New(opts Options) *Client {
	if strings.TrimSpace(opts.BaseURL) == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.VisionModel == "" {
		opts.VisionModel = defaultVisionModel
	}
	if opts.TextModel == "" {
		opts.TextModel = defaultTextModel
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.Executor == nil {
		opts.Executor = resilience.NewExecutor(resilience.DefaultConfig())
	}
	return &Client{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		apiKey:      opts.APIKey,
		visionModel: opts.VisionModel,
		textModel:   opts.TextModel,
		httpClient:  &http.Client{Timeout: opts.Timeout},
		executor:    opts.Executor,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
	MaxTokens      int            `json:"max_tokens"`
	Temperature    float64        `json:"temperature"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// completeJSON runs one structured-output completion and returns the raw
// message content.
func (c *Client) completeJSON(ctx context.Context, operation, model string, messages []chatMessage) (string, error) {
	req := chatRequest{
		Model:          model,
		Messages:       messages,
		ResponseFormat: responseFormat{Type: "json_object"},
		MaxTokens:      defaultMaxTokens,
		Temperature:    0,
	}

	var content string
	err := c.executor.Execute(ctx, operation, func(callCtx context.Context) error {
		var resp chatResponse
		if err := c.postJSON(callCtx, "/chat/completions", req, &resp, operation); err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("%w: no choices in %s response", errMalformedOutput, operation)
		}
		content = strings.TrimSpace(resp.Choices[0].Message.Content)
		if content == "" {
			return fmt.Errorf("%w: empty %s content", errMalformedOutput, operation)
		}
		return nil
	}, classifyOpenAIError)
	if err != nil {
		return "", wrapTemporaryIfNeeded(operation, err)
	}
	return content, nil
}

var errEmptyImage = errors.New("document payload is empty")
