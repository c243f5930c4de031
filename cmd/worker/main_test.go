package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/suPer8Hu/supportbot/internal/events"
)

type memArchive struct {
	saved []events.Event
	err   error
}

func (m *memArchive) SaveEvent(ctx context.Context, e events.Event) error {
	_ = ctx
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, e)
	return nil
}

func TestHandleEvent(t *testing.T) {
	e, err := events.New(events.TypeModelRetrained, map[string]int{"version": 2})
	if err != nil {
		t.Fatalf("new event: %v", err)
	}
	body, _ := json.Marshal(e)

	arc := &memArchive{}
	got, err := handleEvent(context.Background(), arc, body)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if got.ID != e.ID || len(arc.saved) != 1 || arc.saved[0].Type != events.TypeModelRetrained {
		t.Fatalf("unexpected archive state: %+v", arc.saved)
	}
}

func TestHandleEvent_BadMessages(t *testing.T) {
	for _, body := range []string{"not json", `{"type":"x"}`, `{"id":"1"}`} {
		if _, err := handleEvent(context.Background(), &memArchive{}, []byte(body)); !errors.Is(err, errBadMessage) {
			t.Fatalf("%q: expected errBadMessage, got %v", body, err)
		}
	}
}

func TestHandleEvent_ArchiveError(t *testing.T) {
	e, _ := events.New(events.TypeFeedbackRecorded, map[string]string{"text": "hi"})
	body, _ := json.Marshal(e)

	boom := errors.New("db down")
	if _, err := handleEvent(context.Background(), &memArchive{err: boom}, body); !errors.Is(err, boom) {
		t.Fatalf("expected archive error, got %v", err)
	}
}
