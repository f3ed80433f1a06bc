package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

// SystemPrompt steers OpenAI-compatible models toward table formats the
// extractor understands.
const SystemPrompt = "You are ERPGenie, an assistant for ERP data. " +
	"When an answer contains tabular data, present it as a Markdown table " +
	"or as a JSON array of objects, and keep numbers free of units inside cells."

// ChatCompleter is the subset of *openai.Client used here.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIClient talks to any OpenAI-compatible chat completions endpoint.
type OpenAIClient struct {
	client ChatCompleter
	model  string
	host   string
}

// NewOpenAIClient builds a client; baseURL may be empty for api.openai.com.
func NewOpenAIClient(apiKey, baseURL, model string, httpTimeout time.Duration) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: httpTimeout}
	return NewOpenAIClientWith(openai.NewClientWithConfig(cfg), model, hostOf(cfg.BaseURL))
}

// NewOpenAIClientWith wraps an existing completer (used in tests).
func NewOpenAIClientWith(c ChatCompleter, model, host string) *OpenAIClient {
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIClient{client: c, model: model, host: host}
}

// Send runs one chat completion over the history plus the new text.
func (c *OpenAIClient) Send(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	msgs := []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt}}
	for _, m := range req.History {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Text})

	log.Debug().Str("model", c.model).Int("messages", len(msgs)).Msg("chat completion request")
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: msgs,
		N:        1,
	})
	if err != nil {
		return nil, c.convertError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("no choices")
	}
	return &ChatResponse{
		Text:      strings.TrimSpace(resp.Choices[0].Message.Content),
		RequestID: resp.ID,
	}, nil
}

// convertError maps SDK errors onto this package's typed errors.
func (c *OpenAIClient) convertError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		e := &APIError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
		if apiErr.Code != nil {
			e.Code = fmt.Sprint(apiErr.Code)
		}
		return classifyAPIError(e, nil)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		e := &APIError{StatusCode: reqErr.HTTPStatusCode}
		if reqErr.Err != nil {
			e.Message = reqErr.Err.Error()
		}
		return classifyAPIError(e, nil)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && !isTimeout(err) {
		return &UnreachableError{Host: c.host, Err: err}
	}
	return fmt.Errorf("chat completion: %w", err)
}
