package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paperseeker/pkg/types"
)

// fakeModelServer records every request body and answers with a canned reply.
type fakeModelServer struct {
	mu     sync.Mutex
	paths  []string
	bodies []map[string]any
	status int
	reply  string
}

func (f *fakeModelServer) handler(render func(reply string) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(data, &body)

		f.mu.Lock()
		f.paths = append(f.paths, r.URL.Path)
		f.bodies = append(f.bodies, body)
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if f.status != 0 && f.status != http.StatusOK {
			w.WriteHeader(f.status)
			fmt.Fprint(w, `{"error":{"message":"boom","type":"server_error"}}`)
			return
		}
		fmt.Fprint(w, render(f.reply))
	}
}

func openAIReply(reply string) string {
	content, _ := json.Marshal(reply)
	return `{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-4o-mini",` +
		`"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":` + string(content) + `}}]}`
}

func anthropicReply(reply string) string {
	text, _ := json.Marshal(reply)
	return `{"id":"msg_1","type":"message","role":"assistant","model":"claude-haiku-4-5",` +
		`"content":[{"type":"text","text":` + string(text) + `}],"stop_reason":"end_turn",` +
		`"usage":{"input_tokens":1,"output_tokens":1}}`
}

func TestNew_NoKey(t *testing.T) {
	c, ok, err := New(types.LLMConfig{Provider: types.ProviderOpenAI})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, c)
}

func TestNew_SelectsProvider(t *testing.T) {
	c, ok, err := New(types.LLMConfig{APIKey: "k"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.IsType(t, &OpenAIClient{}, c)
	assert.Equal(t, DefaultOpenAIModel, c.Model())

	c, ok, err = New(types.LLMConfig{APIKey: "k", Provider: "Anthropic", Model: "claude-x"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.IsType(t, &AnthropicClient{}, c)
	assert.Equal(t, "claude-x", c.Model())

	_, _, err = New(types.LLMConfig{APIKey: "k", Provider: "gemini"})
	assert.ErrorContains(t, err, `unknown llm provider "gemini"`)
}

func TestOpenAIClient_Complete(t *testing.T) {
	fake := &fakeModelServer{reply: "  评分：4\n理由：相关  "}
	ts := httptest.NewServer(fake.handler(openAIReply))
	defer ts.Close()

	c := NewOpenAI(types.LLMConfig{APIKey: "test-key", BaseURL: ts.URL, Model: "local-model"})
	got, err := c.Complete(context.Background(), Request{
		System:      "rate it",
		User:        "标题：x",
		Temperature: 0.3,
		MaxTokens:   200,
	})
	require.NoError(t, err)
	assert.Equal(t, "评分：4\n理由：相关", got)

	require.Len(t, fake.bodies, 1)
	assert.True(t, strings.HasSuffix(fake.paths[0], "/chat/completions"), fake.paths[0])
	body := fake.bodies[0]
	assert.Equal(t, "local-model", body["model"])
	assert.InDelta(t, 0.3, body["temperature"], 1e-9)
	assert.EqualValues(t, 200, body["max_tokens"])

	msgs, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "user", msgs[1].(map[string]any)["role"])
}

func TestOpenAIClient_ServerErrorNotRetried(t *testing.T) {
	fake := &fakeModelServer{status: http.StatusInternalServerError}
	ts := httptest.NewServer(fake.handler(openAIReply))
	defer ts.Close()

	c := NewOpenAI(types.LLMConfig{APIKey: "k", BaseURL: ts.URL})
	_, err := c.Complete(context.Background(), Request{User: "u"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai API error")
	assert.Len(t, fake.bodies, 1)
}

func TestOpenAIClient_BlankReplyIsEmptyText(t *testing.T) {
	fake := &fakeModelServer{reply: "   "}
	ts := httptest.NewServer(fake.handler(openAIReply))
	defer ts.Close()

	c := NewOpenAI(types.LLMConfig{APIKey: "k", BaseURL: ts.URL})
	got, err := c.Complete(context.Background(), Request{User: "u"})
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestOpenAIClient_NoChoices(t *testing.T) {
	fake := &fakeModelServer{}
	ts := httptest.NewServer(fake.handler(func(string) string {
		return `{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-4o-mini","choices":[]}`
	}))
	defer ts.Close()

	c := NewOpenAI(types.LLMConfig{APIKey: "k", BaseURL: ts.URL})
	_, err := c.Complete(context.Background(), Request{User: "u"})
	assert.ErrorIs(t, err, ErrEmptyReply)
}

func TestAnthropicClient_BlankReplyIsEmptyText(t *testing.T) {
	fake := &fakeModelServer{reply: ""}
	ts := httptest.NewServer(fake.handler(anthropicReply))
	defer ts.Close()

	c := NewAnthropic(types.LLMConfig{APIKey: "k", BaseURL: ts.URL})
	got, err := c.Complete(context.Background(), Request{User: "u"})
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestAnthropicClient_Complete(t *testing.T) {
	fake := &fakeModelServer{reply: "【中文摘要】测试\nEnglish Abstract: test"}
	ts := httptest.NewServer(fake.handler(anthropicReply))
	defer ts.Close()

	c := NewAnthropic(types.LLMConfig{APIKey: "k", BaseURL: ts.URL})
	got, err := c.Complete(context.Background(), Request{System: "summarize", User: "u", Temperature: 0.5})
	require.NoError(t, err)
	assert.Equal(t, "【中文摘要】测试\nEnglish Abstract: test", got)

	require.Len(t, fake.bodies, 1)
	assert.True(t, strings.HasSuffix(fake.paths[0], "/v1/messages"), fake.paths[0])
	body := fake.bodies[0]
	assert.Equal(t, DefaultAnthropicModel, body["model"])
	assert.EqualValues(t, defaultAnthropicMaxTokens, body["max_tokens"])
	assert.NotNil(t, body["system"])
}

func TestAnthropicClient_ServerErrorNotRetried(t *testing.T) {
	fake := &fakeModelServer{status: http.StatusBadGateway}
	ts := httptest.NewServer(fake.handler(anthropicReply))
	defer ts.Close()

	c := NewAnthropic(types.LLMConfig{APIKey: "k", BaseURL: ts.URL})
	_, err := c.Complete(context.Background(), Request{User: "u"})
	require.Error(t, err)
	assert.Len(t, fake.bodies, 1)
}
