package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllamaProvider_Chat(t *testing.T) {
	var got ollamaChatReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"pricing"}}`))
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "llama3:latest")
	out, err := p.Chat(context.Background(), []Message{{Role: RoleUser, Content: "얼마?"}})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if out != "pricing" {
		t.Fatalf("got %q", out)
	}
	if got.Stream || got.Model != "llama3:latest" || len(got.Messages) != 1 {
		t.Fatalf("unexpected request %+v", got)
	}
}

func TestOllamaProvider_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	if _, err := NewOllamaProvider(srv.URL, "").Chat(context.Background(), nil); err == nil {
		t.Fatalf("expected error")
	}
}

func TestOpenRouterProvider_Chat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer k" {
			t.Errorf("missing auth header")
		}
		if r.Header.Get("X-Title") != "supportbot" {
			t.Errorf("missing app header")
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hi"}}]}`))
	}))
	defer srv.Close()

	p := NewOpenRouterProvider(srv.URL, "k", "openrouter/auto", "", "supportbot")
	out, err := p.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hello"}})
	if err != nil || out != "hi" {
		t.Fatalf("got (%q, %v)", out, err)
	}

	p.APIKey = ""
	if _, err := p.Chat(context.Background(), nil); err == nil {
		t.Fatalf("expected api key error")
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	reg.Register(" Fake ", func(ctx context.Context, model string) (Provider, error) {
		_ = ctx
		return &scriptedProvider{reply: model}, nil
	})
	p, err := reg.Get(context.Background(), "fake", "m1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if out, _ := p.Chat(context.Background(), nil); out != "m1" {
		t.Fatalf("factory did not receive model")
	}
	if _, err := reg.Get(context.Background(), "nope", ""); err == nil {
		t.Fatalf("expected unknown provider error")
	}
}
