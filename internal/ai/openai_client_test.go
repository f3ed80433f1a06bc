package ai

import (
	"context"
	"errors"
	"net/http"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

type fakeCompleter struct {
	req  openai.ChatCompletionRequest
	resp openai.ChatCompletionResponse
	err  error
}

func (f *fakeCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.req = req
	return f.resp, f.err
}

func TestOpenAISendBuildsConversation(t *testing.T) {
	fc := &fakeCompleter{resp: openai.ChatCompletionResponse{
		ID:      "chatcmpl_1",
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: "  | A |\n|---|\n| 1 |  "}}},
	}}
	c := NewOpenAIClientWith(fc, "", "example.test")
	resp, err := c.Send(context.Background(), ChatRequest{
		Text:    "and now?",
		History: []Message{{Role: RoleUser, Content: "hi"}, {Role: RoleAssistant, Content: "hello"}},
	})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if resp.Text != "| A |\n|---|\n| 1 |" || resp.RequestID != "chatcmpl_1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if fc.req.Model != DefaultOpenAIModel {
		t.Fatalf("model = %q", fc.req.Model)
	}
	roles := []string{}
	for _, m := range fc.req.Messages {
		roles = append(roles, m.Role)
	}
	want := []string{"system", "user", "assistant", "user"}
	if len(roles) != len(want) {
		t.Fatalf("roles = %v", roles)
	}
	for i := range want {
		if roles[i] != want[i] {
			t.Fatalf("roles = %v, want %v", roles, want)
		}
	}
	if fc.req.Messages[3].Content != "and now?" {
		t.Fatalf("last message = %+v", fc.req.Messages[3])
	}
}

func TestOpenAINoChoices(t *testing.T) {
	c := NewOpenAIClientWith(&fakeCompleter{}, "m", "")
	if _, err := c.Send(context.Background(), ChatRequest{Text: "x"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestOpenAIErrorClassification(t *testing.T) {
	c := NewOpenAIClientWith(&fakeCompleter{err: &openai.APIError{HTTPStatusCode: http.StatusUnauthorized, Message: "bad key"}}, "m", "")
	_, err := c.Send(context.Background(), ChatRequest{Text: "x"})
	var ae *AuthError
	if !errors.As(err, &ae) || ae.Message != "bad key" {
		t.Fatalf("expected AuthError, got %v", err)
	}

	c = NewOpenAIClientWith(&fakeCompleter{err: &openai.RequestError{HTTPStatusCode: http.StatusBadGateway, Err: errors.New("upstream")}}, "m", "")
	_, err = c.Send(context.Background(), ChatRequest{Text: "x"})
	var se *ServerError
	if !errors.As(err, &se) {
		t.Fatalf("expected ServerError, got %v", err)
	}
}

func TestRegistryProviders(t *testing.T) {
	got := Providers()
	if len(got) != 2 || got[0] != ProviderOpenAI || got[1] != ProviderWebhook {
		t.Fatalf("providers = %v", got)
	}
	rt, ok := GetRuntime(ProviderWebhook, RuntimeConfig{WebhookURL: "http://localhost:1/x"})
	if !ok {
		t.Fatalf("webhook runtime not registered")
	}
	if wc, ok := rt.(*WebhookClient); !ok || wc.URL() != "http://localhost:1/x" || wc.retryMaxAttempts != 1 {
		t.Fatalf("unexpected runtime: %#v", rt)
	}
	if _, ok := GetRuntime("nope", RuntimeConfig{}); ok {
		t.Fatalf("unexpected runtime for unknown provider")
	}
}
