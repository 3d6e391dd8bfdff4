package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"chatdeck/internal/blocks"
)

type session struct {
	ID       string            `json:"id"`
	Title    string            `json:"title"`
	Created  time.Time         `json:"created"`
	Messages []*blocks.Message `json:"messages"`
}

// sessionStore keeps sessions in memory. Messages are stored as received;
// decoration happens on the way out.
type sessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*session

	subMu sync.RWMutex
	subs  map[string]map[chan string]struct{}
}

func newSessionStore() *sessionStore {
	return &sessionStore{
		sessions: map[string]*session{},
		subs:     map[string]map[chan string]struct{}{},
	}
}

func (st *sessionStore) create(title string) *session {
	if strings.TrimSpace(title) == "" {
		title = "Session " + time.Now().Format("01-02 15:04:05")
	}
	s := &session{ID: uuid.NewString(), Title: title, Created: time.Now(), Messages: []*blocks.Message{}}
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

// snapshot returns a copy of the session safe to encode without the lock.
func (st *sessionStore) snapshot(id string) (session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	if !ok {
		return session{}, false
	}
	cp := *s
	cp.Messages = append([]*blocks.Message(nil), s.Messages...)
	return cp, true
}

func (st *sessionStore) list() []session {
	st.mu.RLock()
	out := make([]session, 0, len(st.sessions))
	for _, s := range st.sessions {
		cp := *s
		cp.Messages = append([]*blocks.Message(nil), s.Messages...)
		out = append(out, cp)
	}
	st.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Created.Before(out[j].Created) })
	return out
}

func (st *sessionStore) append(id string, m *blocks.Message) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if !ok {
		return false
	}
	s.Messages = append(s.Messages, m)
	return true
}

func (st *sessionStore) subscribe(id string) chan string {
	ch := make(chan string, 8)
	st.subMu.Lock()
	if st.subs[id] == nil {
		st.subs[id] = map[chan string]struct{}{}
	}
	st.subs[id][ch] = struct{}{}
	st.subMu.Unlock()
	return ch
}

func (st *sessionStore) unsubscribe(id string, ch chan string) {
	st.subMu.Lock()
	if subs := st.subs[id]; subs != nil {
		delete(subs, ch)
		if len(subs) == 0 {
			delete(st.subs, id)
		}
	}
	st.subMu.Unlock()
}

// broadcast sends one SSE frame to every subscriber of id. Slow
// subscribers drop frames.
func (st *sessionStore) broadcast(id, event string, data any) {
	line := fmt.Sprintf("event: %s\ndata: %s", event, encodeCompact(data))
	st.subMu.RLock()
	for c := range st.subs[id] {
		select {
		case c <- line:
		default:
		}
	}
	st.subMu.RUnlock()
}

func (s *Server) listSessionsHandler(c *gin.Context) {
	writeJSON(c.Writer, http.StatusOK, s.sessions.list())
}

func (s *Server) createSessionHandler(c *gin.Context) {
	var in struct {
		Title string `json:"title"`
	}
	if err := c.ShouldBindJSON(&in); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(c.Writer, http.StatusBadRequest, errJSON(err))
		return
	}
	writeJSON(c.Writer, http.StatusCreated, s.sessions.create(in.Title))
}

func (s *Server) sessionHandler(c *gin.Context) {
	sess, ok := s.sessions.snapshot(c.Param("id"))
	if !ok {
		writeJSON(c.Writer, http.StatusNotFound, errJSON(errors.New("session not found")))
		return
	}
	writeJSON(c.Writer, http.StatusOK, sess)
}

// postMessageHandler stores a block message and broadcasts it decorated.
// POST /api/sessions/{id}/messages
func (s *Server) postMessageHandler(c *gin.Context) {
	id := c.Param("id")
	if _, ok := s.sessions.snapshot(id); !ok {
		writeJSON(c.Writer, http.StatusNotFound, errJSON(errors.New("session not found")))
		return
	}
	d, err := s.decorator(c)
	if err != nil {
		writeJSON(c.Writer, http.StatusBadRequest, errJSON(err))
		return
	}
	body, err := readBody(c)
	if err != nil {
		writeJSON(c.Writer, http.StatusBadRequest, errJSON(err))
		return
	}
	m, err := blocks.UnmarshalMessage(body)
	if err != nil {
		writeJSON(c.Writer, http.StatusBadRequest, errJSON(err))
		return
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Role == "" {
		m.Role = "user"
	}
	if !s.sessions.append(id, m) {
		writeJSON(c.Writer, http.StatusNotFound, errJSON(errors.New("session not found")))
		return
	}
	out := d.Message(m)
	s.sessions.broadcast(id, "message", out)
	writeJSON(c.Writer, http.StatusCreated, out)
}

// transcriptHandler returns every message of a session, decorated.
// GET /api/sessions/{id}/transcript?style=markdown|shell
func (s *Server) transcriptHandler(c *gin.Context) {
	sess, ok := s.sessions.snapshot(c.Param("id"))
	if !ok {
		writeJSON(c.Writer, http.StatusNotFound, errJSON(errors.New("session not found")))
		return
	}
	d, err := s.decorator(c)
	if err != nil {
		writeJSON(c.Writer, http.StatusBadRequest, errJSON(err))
		return
	}
	out := make([]*blocks.Message, len(sess.Messages))
	for i, m := range sess.Messages {
		out[i] = d.Message(m)
	}
	writeJSON(c.Writer, http.StatusOK, out)
}

// streamHandler is a per-session SSE feed of decorated messages.
// GET /api/sessions/{id}/stream
func (s *Server) streamHandler(c *gin.Context) {
	id := c.Param("id")
	if _, ok := s.sessions.snapshot(id); !ok {
		writeJSON(c.Writer, http.StatusNotFound, errJSON(errors.New("session not found")))
		return
	}
	w := c.Writer
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ch := s.sessions.subscribe(id)
	defer s.sessions.unsubscribe(id, ch)

	_, _ = io.WriteString(w, "event: status\ndata: {\"state\":\"connected\"}\n\n")
	w.Flush()
	done := c.Request.Context().Done()
	for {
		select {
		case <-done:
			return
		case line := <-ch:
			_, _ = io.WriteString(w, line)
			_, _ = io.WriteString(w, "\n\n")
			w.Flush()
		}
	}
}
