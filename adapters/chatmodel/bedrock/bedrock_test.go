package bedrock

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	smithy "github.com/aws/smithy-go"
	"github.com/stretchr/testify/require"

	"github.com/deepresearch/core/chatmodel"
	"github.com/deepresearch/core/errs"
)

type fakeRuntime struct {
	output *bedrockruntime.ConverseOutput
	err    error
	got    *bedrockruntime.ConverseInput
}

func (f *fakeRuntime) Converse(_ context.Context, params *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	f.got = params
	if f.err != nil {
		return nil, f.err
	}
	return f.output, nil
}

func TestNewRequiresRuntimeAndDefaultModel(t *testing.T) {
	_, err := New(nil, Options{DefaultModel: "anthropic.claude-3"})
	require.Error(t, err)

	_, err = New(&fakeRuntime{}, Options{})
	require.Error(t, err)
}

func TestCompleteRejectsEmptyMessages(t *testing.T) {
	c, err := New(&fakeRuntime{}, Options{DefaultModel: "anthropic.claude-3"})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), chatmodel.Request{})
	require.Error(t, err)
}

func TestCompleteTranslatesTextContentAndUsage(t *testing.T) {
	fake := &fakeRuntime{
		output: &bedrockruntime.ConverseOutput{
			Output: &brtypes.ConverseOutputMemberMessage{Value: brtypes.Message{
				Role: brtypes.ConversationRoleAssistant,
				Content: []brtypes.ContentBlock{
					&brtypes.ContentBlockMemberText{Value: "hello"},
					&brtypes.ContentBlockMemberText{Value: "world"},
				},
			}},
			Usage: &brtypes.TokenUsage{
				InputTokens:  aws.Int32(100),
				OutputTokens: aws.Int32(20),
			},
		},
	}
	c, err := New(fake, Options{DefaultModel: "anthropic.claude-3"})
	require.NoError(t, err)

	resp, err := c.Complete(context.Background(), chatmodel.Request{
		Messages: []chatmodel.Message{
			{Role: chatmodel.RoleSystem, Content: "be terse"},
			{Role: chatmodel.RoleUser, Content: "hi"},
		},
	})
	require.NoError(t, err)
	require.Contains(t, resp.Content, "hello")
	require.Contains(t, resp.Content, "world")
	require.Equal(t, 100, resp.InputTokens)
	require.Equal(t, 20, resp.OutputTokens)
	require.Equal(t, "anthropic.claude-3", aws.ToString(fake.got.ModelId))
}

func TestCompleteWrapsProviderError(t *testing.T) {
	c, err := New(&fakeRuntime{err: errors.New("boom")}, Options{DefaultModel: "anthropic.claude-3"})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), chatmodel.Request{
		Messages: []chatmodel.Message{{Role: chatmodel.RoleUser, Content: "hi"}},
	})
	require.Error(t, err)
}

func TestCompleteMarksThrottlingExceptionRetryable(t *testing.T) {
	apiErr := &smithy.GenericAPIError{Code: "ThrottlingException", Message: "too many requests"}
	c, err := New(&fakeRuntime{err: fmt.Errorf("wrapped: %w", apiErr)}, Options{DefaultModel: "anthropic.claude-3"})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), chatmodel.Request{
		Messages: []chatmodel.Message{{Role: chatmodel.RoleUser, Content: "hi"}},
	})
	require.Error(t, err)
	require.True(t, errs.IsRetryable(err))
}

func TestIsThrottledIgnoresOrdinaryErrors(t *testing.T) {
	require.False(t, isThrottled(errors.New("boom")))
	require.False(t, isThrottled(&smithy.GenericAPIError{Code: "ValidationException"}))
}

func TestNameReportsBedrock(t *testing.T) {
	c, err := New(&fakeRuntime{}, Options{DefaultModel: "anthropic.claude-3"})
	require.NoError(t, err)
	require.Equal(t, "bedrock", c.Name())
}
