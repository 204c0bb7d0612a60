package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/require"

	"github.com/deepresearch/core/chatmodel"
)

type fakeChatCompletionsClient struct {
	resp *openai.ChatCompletion
	err  error
	got  openai.ChatCompletionNewParams
}

func (f *fakeChatCompletionsClient) New(_ context.Context, body openai.ChatCompletionNewParams, _ ...option.RequestOption) (*openai.ChatCompletion, error) {
	f.got = body
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func TestNewRequiresClientAndDefaultModel(t *testing.T) {
	_, err := New(Options{DefaultModel: "gpt-4o"})
	require.Error(t, err)

	_, err = New(Options{Client: &fakeChatCompletionsClient{}})
	require.Error(t, err)
}

func TestCompleteUsesConfiguredDefaultModelWhenRequestOmitsOne(t *testing.T) {
	fake := &fakeChatCompletionsClient{resp: &openai.ChatCompletion{}}
	c, err := New(Options{Client: fake, DefaultModel: "gpt-4o-mini"})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), chatmodel.Request{
		Messages: []chatmodel.Message{{Role: chatmodel.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	require.Equal(t, "gpt-4o-mini", string(fake.got.Model))
}

func TestCompleteRejectsEmptyMessages(t *testing.T) {
	c, err := New(Options{Client: &fakeChatCompletionsClient{}, DefaultModel: "gpt-4o-mini"})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), chatmodel.Request{})
	require.Error(t, err)
}

func TestCompleteTranslatesFirstChoiceAndUsage(t *testing.T) {
	fake := &fakeChatCompletionsClient{
		resp: &openai.ChatCompletion{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Content: "hello there"}},
			},
			Usage: openai.CompletionUsage{PromptTokens: 5, CompletionTokens: 7},
		},
	}
	c, err := New(Options{Client: fake, DefaultModel: "gpt-4o-mini"})
	require.NoError(t, err)

	resp, err := c.Complete(context.Background(), chatmodel.Request{
		Messages: []chatmodel.Message{{Role: chatmodel.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	require.Equal(t, "hello there", resp.Content)
	require.Equal(t, 5, resp.InputTokens)
	require.Equal(t, 7, resp.OutputTokens)
}

func TestCompleteWrapsProviderError(t *testing.T) {
	c, err := New(Options{Client: &fakeChatCompletionsClient{err: errors.New("boom")}, DefaultModel: "gpt-4o-mini"})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), chatmodel.Request{
		Messages: []chatmodel.Message{{Role: chatmodel.RoleUser, Content: "hi"}},
	})
	require.Error(t, err)
}

func TestNameReportsOpenAI(t *testing.T) {
	c, err := New(Options{Client: &fakeChatCompletionsClient{}, DefaultModel: "gpt-4o-mini"})
	require.NoError(t, err)
	require.Equal(t, "openai", c.Name())
}
