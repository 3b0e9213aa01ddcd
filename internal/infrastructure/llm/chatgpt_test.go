package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ChuheLin/cs2-wang/internal/config"
	"github.com/ChuheLin/cs2-wang/internal/domain"
)

func conversation() []domain.Message {
	return []domain.Message{
		{Role: domain.RoleSystem, Content: "你是一名 CS2 解说。"},
		{Role: domain.RoleUser, Content: "今日战报"},
	}
}

func TestChatGPTCompleteReturnsFirstChoice(t *testing.T) {
	t.Parallel()

	requests := make(chan []byte, 1)
	auth := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests <- body
		auth <- r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"## 标题\n正文"}},{"message":{"role":"assistant","content":"ignored"}}]}`))
	}))
	defer server.Close()

	client := NewChatGPTClient(config.LLMConfig{
		Endpoint:    server.URL,
		APIKey:      "secret",
		Temperature: 0.7,
		MaxTokens:   512,
		Timeout:     5 * time.Second,
	})

	out, err := client.Complete(context.Background(), conversation())
	require.NoError(t, err)
	require.Equal(t, "## 标题\n正文", out)
	require.Equal(t, "Bearer secret", <-auth)

	var sent chatRequest
	require.NoError(t, json.Unmarshal(<-requests, &sent))
	require.Equal(t, defaultChatModel, sent.Model)
	require.False(t, sent.Stream)
	require.Equal(t, 512, sent.MaxTokens)
	require.Len(t, sent.Messages, 2)
	require.Equal(t, domain.RoleSystem, sent.Messages[0].Role)
	require.Equal(t, "今日战报", sent.Messages[1].Content)
}

func TestChatGPTCompleteErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"error":"boom"}`},
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":"bad key"}`},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`},
		{name: "garbage", status: http.StatusOK, body: `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewChatGPTClient(config.LLMConfig{Endpoint: server.URL, APIKey: "k"})
			_, err := client.Complete(context.Background(), conversation())
			require.Error(t, err)
		})
	}
}

func TestChatGPTCompleteRequiresKeyAndMessages(t *testing.T) {
	t.Parallel()

	_, err := NewChatGPTClient(config.LLMConfig{}).Complete(context.Background(), conversation())
	require.Error(t, err)

	_, err = NewChatGPTClient(config.LLMConfig{APIKey: "k"}).Complete(context.Background(), nil)
	require.Error(t, err)
}

func TestClaudeCompleteJoinsTextBlocks(t *testing.T) {
	t.Parallel()

	paths := make(chan string, 1)
	keys := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths <- r.URL.Path
		keys <- r.Header.Get("X-Api-Key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id":"msg_1","type":"message","role":"assistant","model":"claude-test",
			"content":[{"type":"text","text":"战报"},{"type":"text","text":"完毕"}],
			"stop_reason":"end_turn","usage":{"input_tokens":3,"output_tokens":2}
		}`))
	}))
	defer server.Close()

	client := NewClaudeClient(config.LLMConfig{
		Provider: config.ProviderAnthropic,
		Endpoint: server.URL,
		APIKey:   "anthropic-key",
		Model:    "claude-test",
	})

	out, err := client.Complete(context.Background(), conversation())
	require.NoError(t, err)
	require.Equal(t, "战报完毕", out)
	require.Equal(t, "/v1/messages", <-paths)
	require.Equal(t, "anthropic-key", <-keys)
}

func TestClaudeCompleteSurfacesHTTPErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"api_error","message":"overloaded"}}`))
	}))
	defer server.Close()

	client := NewClaudeClient(config.LLMConfig{Endpoint: server.URL, APIKey: "k"})
	_, err := client.Complete(context.Background(), conversation())
	require.Error(t, err)
}

func TestToClaudeMessagesSplitsSystemPrompt(t *testing.T) {
	t.Parallel()

	system, msgs, err := toClaudeMessages([]domain.Message{
		{Role: domain.RoleSystem, Content: "a"},
		{Role: domain.RoleSystem, Content: "b"},
		{Role: domain.RoleUser, Content: "q"},
		{Role: domain.RoleAssistant, Content: "r"},
	})
	require.NoError(t, err)
	require.Equal(t, "a\n\nb", system)
	require.Len(t, msgs, 2)

	_, _, err = toClaudeMessages([]domain.Message{{Role: domain.RoleSystem, Content: "only"}})
	require.Error(t, err)
}

func TestToGeminiContentsMapsRoles(t *testing.T) {
	t.Parallel()

	system, contents, err := toGeminiContents([]domain.Message{
		{Role: domain.RoleSystem, Content: "sys"},
		{Role: domain.RoleUser, Content: "q"},
		{Role: domain.RoleAssistant, Content: "r"},
	})
	require.NoError(t, err)
	require.Equal(t, "sys", system)
	require.Len(t, contents, 2)
	require.Equal(t, "user", contents[0].Role)
	require.Equal(t, "model", contents[1].Role)
	require.Equal(t, "q", contents[0].Parts[0].Text)

	_, _, err = toGeminiContents(nil)
	require.Error(t, err)
}

func TestNewSelectsProvider(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	client, err := New(ctx, config.LLMConfig{Provider: config.ProviderOpenAI})
	require.NoError(t, err)
	require.Nil(t, client)

	client, err = New(ctx, config.LLMConfig{Provider: config.ProviderOpenAI, APIKey: "k"})
	require.NoError(t, err)
	require.IsType(t, &ChatGPTClient{}, client)

	client, err = New(ctx, config.LLMConfig{Provider: config.ProviderAnthropic, APIKey: "k"})
	require.NoError(t, err)
	require.IsType(t, &ClaudeClient{}, client)

	client, err = New(ctx, config.LLMConfig{Provider: config.ProviderGemini, APIKey: "k"})
	require.NoError(t, err)
	require.IsType(t, &GeminiClient{}, client)

	_, err = New(ctx, config.LLMConfig{Provider: "mystery", APIKey: "k"})
	require.Error(t, err)
}
