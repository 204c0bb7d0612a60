// Package openai adapts the OpenAI Chat Completions API to
// chatmodel.Model. Its shape (ChatClient seam, Options, New/NewFromAPIKey,
// translateResponse) is grounded on features/model/openai/client.go;
// the underlying calls use github.com/openai/openai-go, the SDK this
// module's go.mod pins, rather than the teacher's sashabaranov/go-openai.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/deepresearch/core/chatmodel"
)

// ChatCompletionsClient captures the subset of the openai-go client used by
// this adapter, letting callers inject a fake in tests instead of a live
// openai.Client.
type ChatCompletionsClient interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// Options configures the OpenAI adapter.
type Options struct {
	Client       ChatCompletionsClient
	DefaultModel string
}

// Client implements chatmodel.Model via the OpenAI Chat Completions API.
type Client struct {
	chat  ChatCompletionsClient
	model string
}

// New builds an OpenAI-backed chatmodel.Model from the provided options.
func New(opts Options) (*Client, error) {
	if opts.Client == nil {
		return nil, errors.New("openai: chat completions client is required")
	}
	modelID := strings.TrimSpace(opts.DefaultModel)
	if modelID == "" {
		return nil, errors.New("openai: default model is required")
	}
	return &Client{chat: opts.Client, model: modelID}, nil
}

// NewFromAPIKey constructs a client using the default openai-go HTTP client.
func NewFromAPIKey(apiKey, defaultModel string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("openai: api key is required")
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return New(Options{Client: &client.Chat.Completions, DefaultModel: defaultModel})
}

// Name implements chatmodel.Model.
func (c *Client) Name() string { return "openai" }

// Complete implements chatmodel.Model.
func (c *Client) Complete(ctx context.Context, req chatmodel.Request) (chatmodel.Response, error) {
	if len(req.Messages) == 0 {
		return chatmodel.Response{}, errors.New("openai: messages are required")
	}
	modelID := strings.TrimSpace(req.Model)
	if modelID == "" {
		modelID = c.model
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case chatmodel.RoleSystem:
			messages = append(messages, openai.SystemMessage(m.Content))
		case chatmodel.RoleUser:
			messages = append(messages, openai.UserMessage(m.Content))
		case chatmodel.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(modelID),
		Messages: messages,
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	resp, err := c.chat.New(ctx, params)
	if err != nil {
		return chatmodel.Response{}, fmt.Errorf("openai chat completion: %w", err)
	}
	return translateResponse(resp), nil
}

func translateResponse(resp *openai.ChatCompletion) chatmodel.Response {
	out := chatmodel.Response{
		InputTokens:  int(resp.Usage.PromptTokens),
		OutputTokens: int(resp.Usage.CompletionTokens),
	}
	if len(resp.Choices) > 0 {
		out.Content = resp.Choices[0].Message.Content
	}
	return out
}
