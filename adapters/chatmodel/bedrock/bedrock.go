// Package bedrock adapts the AWS Bedrock Converse API to chatmodel.Model,
// grounded on features/model/bedrock/client.go but trimmed to the
// research engine's simpler non-streaming, tool-free Request/Response
// shape: split system vs. conversational messages, call Converse, and
// translate the text content blocks of the response back.
package bedrock

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	smithy "github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/deepresearch/core/chatmodel"
	"github.com/deepresearch/core/errs"
)

// RuntimeClient mirrors the subset of the AWS Bedrock runtime client this
// adapter needs, matching *bedrockruntime.Client so callers can pass
// either the real client or a fake in tests.
type RuntimeClient interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// Options configures the Bedrock adapter.
type Options struct {
	DefaultModel string
	MaxTokens    int
	Temperature  float32
}

// Client implements chatmodel.Model on top of AWS Bedrock Converse.
type Client struct {
	runtime      RuntimeClient
	defaultModel string
	maxTokens    int
	temperature  float32
}

// New builds a Bedrock-backed chatmodel.Model.
func New(runtime RuntimeClient, opts Options) (*Client, error) {
	if runtime == nil {
		return nil, errors.New("bedrock: runtime client is required")
	}
	if opts.DefaultModel == "" {
		return nil, errors.New("bedrock: default model identifier is required")
	}
	return &Client{
		runtime:      runtime,
		defaultModel: opts.DefaultModel,
		maxTokens:    opts.MaxTokens,
		temperature:  opts.Temperature,
	}, nil
}

// Name implements chatmodel.Model.
func (c *Client) Name() string { return "bedrock" }

// Complete implements chatmodel.Model.
func (c *Client) Complete(ctx context.Context, req chatmodel.Request) (chatmodel.Response, error) {
	modelID := req.Model
	if modelID == "" {
		modelID = c.defaultModel
	}

	var system []brtypes.SystemContentBlock
	var conversation []brtypes.Message
	for _, m := range req.Messages {
		switch m.Role {
		case chatmodel.RoleSystem:
			if m.Content != "" {
				system = append(system, &brtypes.SystemContentBlockMemberText{Value: m.Content})
			}
		case chatmodel.RoleUser:
			conversation = append(conversation, brtypes.Message{
				Role:    brtypes.ConversationRoleUser,
				Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: m.Content}},
			})
		case chatmodel.RoleAssistant:
			conversation = append(conversation, brtypes.Message{
				Role:    brtypes.ConversationRoleAssistant,
				Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: m.Content}},
			})
		}
	}
	if len(conversation) == 0 {
		return chatmodel.Response{}, errors.New("bedrock: at least one user/assistant message is required")
	}

	input := &bedrockruntime.ConverseInput{
		ModelId:  aws.String(modelID),
		Messages: conversation,
	}
	if len(system) > 0 {
		input.System = system
	}
	if cfg := c.inferenceConfig(req.MaxTokens, req.Temperature); cfg != nil {
		input.InferenceConfig = cfg
	}

	output, err := c.runtime.Converse(ctx, input)
	if err != nil {
		if isThrottled(err) {
			return chatmodel.Response{}, errs.WrapRetryable(err, 0, "bedrock converse")
		}
		return chatmodel.Response{}, fmt.Errorf("bedrock converse: %w", err)
	}
	return translateResponse(output)
}

// isThrottled reports whether err represents a Bedrock rate-limiting
// condition, matching features/model/bedrock/client.go's isRateLimited:
// both a ThrottlingException/TooManyRequestsException API error code and a
// bare HTTP 429 response count.
func isThrottled(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ThrottlingException", "TooManyRequestsException":
			return true
		}
	}
	var respErr *smithyhttp.ResponseError
	return errors.As(err, &respErr) && respErr.HTTPStatusCode() == 429
}

func (c *Client) inferenceConfig(maxTokens int, temperature float64) *brtypes.InferenceConfiguration {
	cfg := &brtypes.InferenceConfiguration{}
	set := false
	if maxTokens > 0 {
		v := int32(maxTokens)
		cfg.MaxTokens = &v
		set = true
	} else if c.maxTokens > 0 {
		v := int32(c.maxTokens)
		cfg.MaxTokens = &v
		set = true
	}
	temp := float32(temperature)
	if temp == 0 {
		temp = c.temperature
	}
	if temp > 0 {
		cfg.Temperature = &temp
		set = true
	}
	if !set {
		return nil
	}
	return cfg
}

func translateResponse(output *bedrockruntime.ConverseOutput) (chatmodel.Response, error) {
	if output == nil {
		return chatmodel.Response{}, errors.New("bedrock: response is nil")
	}
	resp := chatmodel.Response{}
	if msg, ok := output.Output.(*brtypes.ConverseOutputMemberMessage); ok {
		for _, block := range msg.Value.Content {
			if v, ok := block.(*brtypes.ContentBlockMemberText); ok && v.Value != "" {
				if resp.Content != "" {
					resp.Content += "\n"
				}
				resp.Content += v.Value
			}
		}
	}
	if usage := output.Usage; usage != nil {
		resp.InputTokens = int(ptrValue(usage.InputTokens))
		resp.OutputTokens = int(ptrValue(usage.OutputTokens))
	}
	return resp, nil
}

func ptrValue(p *int32) int32 {
	if p == nil {
		return 0
	}
	return *p
}
