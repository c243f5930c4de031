package maintenance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeExpirer struct {
	mu    sync.Mutex
	calls int
	panic bool
}

func (f *fakeExpirer) ExpireIdle(now time.Time) int {
	_ = now
	f.mu.Lock()
	f.calls++
	p := f.panic
	f.mu.Unlock()
	if p {
		panic("boom")
	}
	return 1
}

func (f *fakeExpirer) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeDrainer struct {
	mu    sync.Mutex
	calls int
	err   error
	ready chan struct{}
}

func newFakeDrainer() *fakeDrainer { return &fakeDrainer{ready: make(chan struct{}, 1)} }

func (f *fakeDrainer) DrainIfReady(ctx context.Context) (bool, error) {
	_ = ctx
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err == nil, f.err
}

func (f *fakeDrainer) Ready() <-chan struct{} { return f.ready }

func (f *fakeDrainer) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func TestTick_RunsBothSteps(t *testing.T) {
	e, d := &fakeExpirer{}, newFakeDrainer()
	s := New(e, d, time.Hour, nil)
	s.Tick(context.Background())
	if e.Calls() != 1 || d.Calls() != 1 {
		t.Fatalf("expire=%d drain=%d", e.Calls(), d.Calls())
	}
}

func TestTick_SurvivesPanicAndErrors(t *testing.T) {
	e, d := &fakeExpirer{panic: true}, newFakeDrainer()
	d.err = errors.New("training exploded")
	s := New(e, d, time.Hour, nil)

	s.Tick(context.Background())
	s.Tick(context.Background())
	if e.Calls() != 2 || d.Calls() != 2 {
		t.Fatalf("expected both steps on both ticks, expire=%d drain=%d", e.Calls(), d.Calls())
	}
}

func TestStart_KeepsTickingAfterFailures(t *testing.T) {
	e, d := &fakeExpirer{panic: true}, newFakeDrainer()
	d.err = errors.New("fail")
	s := New(e, d, 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	waitFor(t, func() bool { return e.Calls() >= 3 })
	cancel()
	s.Wait()
}

func TestStart_DrainsOnReadySignal(t *testing.T) {
	e, d := &fakeExpirer{}, newFakeDrainer()
	s := New(e, d, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		s.Wait()
	}()
	s.Start(ctx)

	d.ready <- struct{}{}
	waitFor(t, func() bool { return d.Calls() == 1 })
	if e.Calls() != 0 {
		t.Fatalf("ready signal should not expire sessions")
	}
}
