package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/suPer8Hu/supportbot/internal/hybrid"
	"github.com/suPer8Hu/supportbot/internal/intent"
	"github.com/suPer8Hu/supportbot/internal/session"
)

type fixedLocal struct {
	label intent.Label
	conf  float64
	ok    bool
}

func (f fixedLocal) Predict(ctx context.Context, text string) (intent.Label, float64, bool) {
	_ = ctx
	_ = text
	return f.label, f.conf, f.ok
}

type fixedRemote intent.Label

func (f fixedRemote) Classify(ctx context.Context, text string) intent.Label {
	_ = ctx
	_ = text
	return intent.Label(f)
}

type recordingGenerator struct {
	mu           sync.Mutex
	prompt       string
	conversation string
}

func (g *recordingGenerator) Generate(ctx context.Context, prompt, conversation string) string {
	_ = ctx
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompt = prompt
	g.conversation = conversation
	return "reply"
}

func TestSendMessage_WritesUserAndAssistant(t *testing.T) {
	store := session.NewStore(20, time.Hour)
	gen := &recordingGenerator{}
	svc := NewService(store, fixedLocal{intent.Pricing, 0.8, true}, fixedRemote(intent.Usage), gen, nil)

	reply, err := svc.SendMessage(context.Background(), "s1", "Hello")
	if err != nil {
		t.Fatalf("send message: %v", err)
	}
	if reply.Response != "reply" || reply.SessionID != "s1" {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	if reply.Provenance.Intent != intent.Pricing || reply.Provenance.Source != hybrid.SourceLocal {
		t.Fatalf("unexpected provenance: %+v", reply.Provenance)
	}

	msgs, ok := store.History("s1")
	if !ok || len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != session.RoleUser || msgs[0].Content != "Hello" || msgs[0].Provenance != nil {
		t.Fatalf("unexpected user msg: %+v", msgs[0])
	}
	if msgs[1].Role != session.RoleAssistant || msgs[1].Content != "reply" {
		t.Fatalf("unexpected assistant msg: %+v", msgs[1])
	}
	if msgs[1].Provenance == nil || msgs[1].Provenance.RemoteIntent != intent.Usage {
		t.Fatalf("assistant turn should carry provenance: %+v", msgs[1].Provenance)
	}
	if !strings.Contains(gen.prompt, Guideline(intent.Pricing)) {
		t.Fatalf("prompt should carry the pricing guideline")
	}
}

func TestSendMessage_PassesPriorTurnsAsContext(t *testing.T) {
	store := session.NewStore(20, time.Hour)
	gen := &recordingGenerator{}
	svc := NewService(store, fixedLocal{}, fixedRemote(intent.Greeting), gen, nil)

	if _, err := svc.SendMessage(context.Background(), "s", "안녕하세요"); err != nil {
		t.Fatalf("first: %v", err)
	}
	if gen.conversation != "" {
		t.Fatalf("first turn should have no context, got %q", gen.conversation)
	}
	if _, err := svc.SendMessage(context.Background(), "s", "요금 알려줘"); err != nil {
		t.Fatalf("second: %v", err)
	}
	want := "User: 안녕하세요\nAssistant: reply\n"
	if gen.conversation != want {
		t.Fatalf("context = %q, want %q", gen.conversation, want)
	}
}

func TestSendMessage_NoLocalModelUsesRemote(t *testing.T) {
	store := session.NewStore(20, time.Hour)
	svc := NewService(store, fixedLocal{}, fixedRemote(intent.Account), &recordingGenerator{}, nil)

	reply, err := svc.SendMessage(context.Background(), "", "비밀번호를 잊었어요")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if reply.SessionID == "" {
		t.Fatalf("expected a generated session id")
	}
	if reply.Provenance.Intent != intent.Account || reply.Provenance.Source != hybrid.SourceRemote {
		t.Fatalf("unexpected provenance: %+v", reply.Provenance)
	}
}

func TestSendMessage_EmptyMessage(t *testing.T) {
	svc := NewService(session.NewStore(20, time.Hour), fixedLocal{}, fixedRemote(intent.Other), &recordingGenerator{}, nil)
	if _, err := svc.SendMessage(context.Background(), "s", "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestSendMessage_ConcurrentTurnsStayPaired(t *testing.T) {
	store := session.NewStore(1000, time.Hour)
	svc := NewService(store, fixedLocal{}, fixedRemote(intent.Other), &recordingGenerator{}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.SendMessage(context.Background(), "shared", "hi")
		}()
	}
	wg.Wait()

	msgs, _ := store.History("shared")
	if len(msgs) != 40 {
		t.Fatalf("expected 40 messages, got %d", len(msgs))
	}
	for i := 0; i < len(msgs); i += 2 {
		if msgs[i].Role != session.RoleUser || msgs[i+1].Role != session.RoleAssistant {
			t.Fatalf("turns interleaved at %d", i)
		}
	}
}
