package ai

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/suPer8Hu/supportbot/internal/intent"
)

type scriptedProvider struct {
	mu    sync.Mutex
	reply string
	err   error
	delay time.Duration
	calls int
	last  []Message
}

func (p *scriptedProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	p.mu.Lock()
	p.calls++
	p.last = append([]Message(nil), messages...)
	reply, err, delay := p.reply, p.err, p.delay
	p.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return reply, err
}

type mapCache struct {
	mu sync.Mutex
	m  map[string]intent.Label
}

func (c *mapCache) Get(ctx context.Context, text string) (intent.Label, bool, error) {
	_ = ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.m[text]
	return l, ok, nil
}

func (c *mapCache) Set(ctx context.Context, text string, label intent.Label) error {
	_ = ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[text] = label
	return nil
}

func TestClassify_ParsesLabel(t *testing.T) {
	p := &scriptedProvider{reply: " 요금_문의\n"}
	r := NewRemote(p)
	if got := r.Classify(context.Background(), "얼마예요?"); got != intent.Pricing {
		t.Fatalf("got %q", got)
	}
	if !strings.Contains(p.last[0].Content, "얼마예요?") {
		t.Fatalf("prompt should contain the user text")
	}
}

func TestClassify_FailureIsOther(t *testing.T) {
	r := NewRemote(&scriptedProvider{err: errors.New("503")})
	if got := r.Classify(context.Background(), "x"); got != intent.Other {
		t.Fatalf("got %q", got)
	}
}

func TestClassify_TimeoutIsOther(t *testing.T) {
	r := NewRemote(&scriptedProvider{reply: "pricing", delay: time.Second}, WithTimeout(20*time.Millisecond))
	start := time.Now()
	if got := r.Classify(context.Background(), "x"); got != intent.Other {
		t.Fatalf("got %q", got)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Fatalf("timeout not applied")
	}
}

func TestClassify_UsesCache(t *testing.T) {
	p := &scriptedProvider{reply: "usage"}
	r := NewRemote(p, WithCache(&mapCache{m: map[string]intent.Label{}}))
	for i := 0; i < 3; i++ {
		if got := r.Classify(context.Background(), "how do I open the door"); got != intent.Usage {
			t.Fatalf("got %q", got)
		}
	}
	if p.calls != 1 {
		t.Fatalf("expected one provider call, got %d", p.calls)
	}
}

func TestGenerate(t *testing.T) {
	p := &scriptedProvider{reply: "요금은 시간당 5,000원입니다."}
	r := NewRemote(p)
	got := r.Generate(context.Background(), "요금 알려줘", "User: 안녕\n")
	if got != p.reply {
		t.Fatalf("got %q", got)
	}
	if len(p.last) != 2 || p.last[0].Role != RoleSystem {
		t.Fatalf("expected context as system message, got %+v", p.last)
	}

	p.err = errors.New("down")
	if got := r.Generate(context.Background(), "요금 알려줘", ""); got != ApologyText {
		t.Fatalf("expected apology, got %q", got)
	}
}
