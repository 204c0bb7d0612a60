// Package anthropic adapts the Anthropic Claude Messages API to
// chatmodel.Model, grounded on
// features/model/anthropic/client.go but trimmed to the research
// engine's simpler non-streaming, tool-free Request/Response shape.
package anthropic

import (
	"context"
	"errors"
	"fmt"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/deepresearch/core/chatmodel"
)

// MessagesClient captures the subset of the Anthropic SDK client used by
// this adapter, letting callers inject a mock in tests instead of a live
// *sdk.MessageService.
type MessagesClient interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// Options configures the Anthropic adapter.
type Options struct {
	// DefaultModel is used when a Request leaves Model empty.
	DefaultModel string
	// MaxTokens is the completion cap applied when a Request doesn't set one.
	MaxTokens int
	// Temperature is applied when a Request leaves Temperature at zero.
	Temperature float64
}

// Client implements chatmodel.Model on top of Anthropic Claude Messages.
type Client struct {
	msg          MessagesClient
	defaultModel string
	maxTokens    int
	temperature  float64
}

// New builds an Anthropic-backed chatmodel.Model.
func New(msg MessagesClient, opts Options) (*Client, error) {
	if msg == nil {
		return nil, errors.New("anthropic: messages client is required")
	}
	if opts.DefaultModel == "" {
		return nil, errors.New("anthropic: default model identifier is required")
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &Client{
		msg:          msg,
		defaultModel: opts.DefaultModel,
		maxTokens:    maxTokens,
		temperature:  opts.Temperature,
	}, nil
}

// NewFromAPIKey constructs a client using the default Anthropic HTTP client,
// reading ANTHROPIC_API_KEY-style configuration from apiKey directly.
func NewFromAPIKey(apiKey, defaultModel string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic: api key is required")
	}
	ac := sdk.NewClient(option.WithAPIKey(apiKey))
	return New(&ac.Messages, Options{DefaultModel: defaultModel})
}

// Name implements chatmodel.Model.
func (c *Client) Name() string { return "anthropic" }

// Complete implements chatmodel.Model.
func (c *Client) Complete(ctx context.Context, req chatmodel.Request) (chatmodel.Response, error) {
	if len(req.Messages) == 0 {
		return chatmodel.Response{}, errors.New("anthropic: messages are required")
	}
	modelID := req.Model
	if modelID == "" {
		modelID = c.defaultModel
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}

	var system []sdk.TextBlockParam
	var conversation []sdk.MessageParam
	for _, m := range req.Messages {
		switch m.Role {
		case chatmodel.RoleSystem:
			if m.Content != "" {
				system = append(system, sdk.TextBlockParam{Text: m.Content})
			}
		case chatmodel.RoleUser:
			conversation = append(conversation, sdk.NewUserMessage(sdk.NewTextBlock(m.Content)))
		case chatmodel.RoleAssistant:
			conversation = append(conversation, sdk.NewAssistantMessage(sdk.NewTextBlock(m.Content)))
		}
	}
	if len(conversation) == 0 {
		return chatmodel.Response{}, errors.New("anthropic: at least one user/assistant message is required")
	}

	params := sdk.MessageNewParams{
		MaxTokens: int64(maxTokens),
		Messages:  conversation,
		Model:     sdk.Model(modelID),
	}
	if len(system) > 0 {
		params.System = system
	}
	temp := req.Temperature
	if temp == 0 {
		temp = c.temperature
	}
	if temp > 0 {
		params.Temperature = sdk.Float(temp)
	}

	msg, err := c.msg.New(ctx, params)
	if err != nil {
		return chatmodel.Response{}, fmt.Errorf("anthropic messages.new: %w", err)
	}
	return translateResponse(msg), nil
}

func translateResponse(msg *sdk.Message) chatmodel.Response {
	resp := chatmodel.Response{}
	for _, block := range msg.Content {
		if block.Type == "text" && block.Text != "" {
			if resp.Content != "" {
				resp.Content += "\n"
			}
			resp.Content += block.Text
		}
	}
	resp.InputTokens = int(msg.Usage.InputTokens)
	resp.OutputTokens = int(msg.Usage.OutputTokens)
	return resp
}
