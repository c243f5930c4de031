package session

import (
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	DefaultMaxMessages = 20
	DefaultTimeout     = 30 * time.Minute
)

// Session is a single conversation. Its message list has its own lock so
// requests for different sessions never contend.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu           sync.Mutex
	messages     []Message
	lastActivity time.Time
}

// LastActivity returns the time of the latest append (or creation).
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// Messages returns a copy of the history, oldest first.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

func (s *Session) append(max int, msgs ...Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msgs...)
	if over := len(s.messages) - max; over > 0 {
		// copy so the evicted prefix can be collected
		s.messages = append([]Message(nil), s.messages[over:]...)
	}
	for _, m := range msgs {
		if m.Timestamp.After(s.lastActivity) {
			s.lastActivity = m.Timestamp
		}
	}
}

// Store is the in-memory registry of live sessions.
type Store struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	maxMessages int
	timeout     time.Duration
	now         func() time.Time
}

func NewStore(maxMessages int, timeout time.Duration) *Store {
	if maxMessages <= 0 {
		maxMessages = DefaultMaxMessages
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Store{
		sessions:    make(map[string]*Session),
		maxMessages: maxMessages,
		timeout:     timeout,
		now:         time.Now,
	}
}

// GetOrCreate returns the session for id, creating it on first reference.
func (st *Store) GetOrCreate(id string) *Session {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if ok {
		return s
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	// another request may have created it between the two locks
	if s, ok := st.sessions[id]; ok {
		return s
	}
	now := st.now()
	s = &Session{ID: id, CreatedAt: now, lastActivity: now}
	st.sessions[id] = s
	return s
}

// Get looks a session up without creating it.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	return s, ok
}

// Append adds a message to the session and trims the history to the newest
// maxMessages entries.
func (st *Store) Append(id, role, content string, prov *Provenance) Message {
	s := st.GetOrCreate(id)
	m := Message{
		Role:       role,
		Content:    content,
		Timestamp:  st.now(),
		Provenance: prov,
	}
	s.append(st.maxMessages, m)
	return m
}

// AppendTurn appends a user message and the assistant reply together so
// turns of concurrent requests on one session never interleave.
func (st *Store) AppendTurn(id, userText, reply string, prov *Provenance) {
	now := st.now()
	st.GetOrCreate(id).append(st.maxMessages,
		Message{Role: RoleUser, Content: userText, Timestamp: now},
		Message{Role: RoleAssistant, Content: reply, Timestamp: now, Provenance: prov},
	)
}

// RenderContext serializes the history as a role-labelled transcript.
func (st *Store) RenderContext(id string) string {
	msgs := st.GetOrCreate(id).Messages()
	var b strings.Builder
	for _, m := range msgs {
		switch m.Role {
		case RoleUser:
			b.WriteString("User: ")
		case RoleAssistant:
			b.WriteString("Assistant: ")
		default:
			b.WriteString(m.Role + ": ")
		}
		b.WriteString(m.Content)
		b.WriteByte('\n')
	}
	return b.String()
}

// History returns a copy of the messages of an existing session.
func (st *Store) History(id string) ([]Message, bool) {
	s, ok := st.Get(id)
	if !ok {
		return nil, false
	}
	return s.Messages(), true
}

// ExpireIdle removes every session idle for longer than the timeout.
func (st *Store) ExpireIdle(now time.Time) int {
	st.mu.Lock()
	defer st.mu.Unlock()
	removed := 0
	for id, s := range st.sessions {
		if now.Sub(s.LastActivity()) > st.timeout {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

// List returns a summary of all sessions, most recently active first.
func (st *Store) List(now time.Time) []Summary {
	st.mu.RLock()
	all := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		all = append(all, s)
	}
	st.mu.RUnlock()

	out := make([]Summary, 0, len(all))
	for _, s := range all {
		s.mu.Lock()
		sum := Summary{
			SessionID:    s.ID,
			MessageCount: len(s.messages),
			CreatedAt:    s.CreatedAt,
			LastActivity: s.lastActivity,
			IsExpired:    now.Sub(s.lastActivity) > st.timeout,
		}
		s.mu.Unlock()
		out = append(out, sum)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastActivity.After(out[j].LastActivity)
	})
	return out
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
