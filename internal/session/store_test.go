package session

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestStore(max int, timeout time.Duration) (*Store, *fakeClock) {
	clk := &fakeClock{t: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)}
	st := NewStore(max, timeout)
	st.now = clk.Now
	return st, clk
}

func TestGetOrCreate_Idempotent(t *testing.T) {
	st, _ := newTestStore(5, time.Minute)

	a := st.GetOrCreate("s1")
	b := st.GetOrCreate("s1")
	if a != b {
		t.Fatalf("expected same session handle")
	}

	st.Append("s1", RoleUser, "hi", nil)
	if got := len(b.Messages()); got != 1 {
		t.Fatalf("expected append to be visible through other handle, got %d msgs", got)
	}
}

func TestGetOrCreate_ConcurrentSingleSession(t *testing.T) {
	st, _ := newTestStore(5, time.Minute)

	const n = 64
	got := make([]*Session, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = st.GetOrCreate("same")
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		if got[i] != got[0] {
			t.Fatalf("goroutine %d got a different session", i)
		}
	}
	if st.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", st.Len())
	}
}

func TestAppend_TrimsToLastN(t *testing.T) {
	const max = 4
	st, clk := newTestStore(max, time.Minute)

	for i := 0; i < max+3; i++ {
		clk.Advance(time.Second)
		st.Append("s", RoleUser, fmt.Sprintf("m%d", i), nil)
	}

	msgs, ok := st.History("s")
	if !ok {
		t.Fatalf("session missing")
	}
	if len(msgs) != max {
		t.Fatalf("expected %d messages, got %d", max, len(msgs))
	}
	for i, m := range msgs {
		want := fmt.Sprintf("m%d", i+3)
		if m.Content != want {
			t.Fatalf("msg %d: got %q want %q", i, m.Content, want)
		}
	}
}

func TestAppend_ConcurrentSameSession(t *testing.T) {
	st, _ := newTestStore(1000, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			st.Append("busy", RoleUser, fmt.Sprint(i), nil)
		}(i)
	}
	wg.Wait()

	msgs, _ := st.History("busy")
	if len(msgs) != 100 {
		t.Fatalf("expected 100 messages, got %d", len(msgs))
	}
}

func TestLastActivity_NeverDecreases(t *testing.T) {
	st, clk := newTestStore(5, time.Minute)
	clk.Advance(time.Minute)
	st.Append("s", RoleUser, "a", nil)
	first := st.GetOrCreate("s").LastActivity()

	clk.Advance(-30 * time.Second)
	st.Append("s", RoleUser, "b", nil)
	if got := st.GetOrCreate("s").LastActivity(); got.Before(first) {
		t.Fatalf("last activity went backwards: %v < %v", got, first)
	}
}

func TestRenderContext(t *testing.T) {
	st, _ := newTestStore(5, time.Minute)
	st.Append("s", RoleUser, "how much per km?", nil)
	st.Append("s", RoleAssistant, "It depends on the car.", &Provenance{Source: "local"})

	got := st.RenderContext("s")
	want := "User: how much per km?\nAssistant: It depends on the car.\n"
	if got != want {
		t.Fatalf("unexpected transcript:\n%s", got)
	}
}

func TestExpireIdle(t *testing.T) {
	st, clk := newTestStore(5, 10*time.Minute)

	st.Append("old", RoleUser, "a", nil)
	clk.Advance(9 * time.Minute)
	st.Append("fresh", RoleUser, "b", nil)
	clk.Advance(2 * time.Minute)

	if n := st.ExpireIdle(clk.Now()); n != 1 {
		t.Fatalf("expected 1 expired, got %d", n)
	}
	if _, ok := st.Get("old"); ok {
		t.Fatalf("old session should be gone")
	}
	for _, s := range st.List(clk.Now()) {
		if s.SessionID == "old" {
			t.Fatalf("old session still listed")
		}
	}
	if _, ok := st.Get("fresh"); !ok {
		t.Fatalf("fresh session should survive")
	}
}

func TestList_MarksExpiredAndSorts(t *testing.T) {
	st, clk := newTestStore(5, time.Minute)
	st.Append("a", RoleUser, "x", nil)
	clk.Advance(2 * time.Minute)
	st.Append("b", RoleUser, "y", nil)
	st.Append("b", RoleAssistant, "z", nil)

	list := st.List(clk.Now())
	if len(list) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(list))
	}
	if list[0].SessionID != "b" || list[0].MessageCount != 2 || list[0].IsExpired {
		t.Fatalf("unexpected first summary: %+v", list[0])
	}
	if list[1].SessionID != "a" || !list[1].IsExpired {
		t.Fatalf("unexpected second summary: %+v", list[1])
	}
}

func TestRenderContext_UnknownCreates(t *testing.T) {
	st, _ := newTestStore(5, time.Minute)
	if got := st.RenderContext("new"); strings.TrimSpace(got) != "" {
		t.Fatalf("expected empty transcript, got %q", got)
	}
	if st.Len() != 1 {
		t.Fatalf("expected render to ensure the session")
	}
}

func TestAppendTurn_PairsAndTrims(t *testing.T) {
	st, _ := newTestStore(4, time.Minute)
	prov := &Provenance{FinalIntent: "pricing", Source: "local", LocalConfidence: 0.9}

	for i := 0; i < 3; i++ {
		st.AppendTurn("s", "q", "a", prov)
	}
	msgs, ok := st.History("s")
	if !ok || len(msgs) != 4 {
		t.Fatalf("expected 4 messages after trim, got %d", len(msgs))
	}
	if msgs[0].Role != RoleUser || msgs[1].Role != RoleAssistant {
		t.Fatalf("trim should keep whole turns: %+v", msgs[:2])
	}
	if msgs[0].Provenance != nil || msgs[1].Provenance == nil || msgs[1].Provenance.Source != "local" {
		t.Fatalf("provenance belongs on the assistant turn only")
	}
}
