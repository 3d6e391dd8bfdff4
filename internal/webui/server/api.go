package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"chatdeck/internal/blocks"
	appver "chatdeck/internal/version"
)

// maxBody caps request bodies for the decorate endpoints.
const maxBody = 8 << 20

func versionHandler(c *gin.Context) {
	writeJSON(c.Writer, http.StatusOK, map[string]string{"version": appver.AppVersion})
}

// decorateHandler decorates one message.
// POST /api/decorate?style=markdown|shell
func (s *Server) decorateHandler(c *gin.Context) {
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
	writeJSON(c.Writer, http.StatusOK, d.Message(m))
}

// decorateEventsHandler decorates a JSON array of stream events.
// POST /api/decorate/events?style=markdown|shell
func (s *Server) decorateEventsHandler(c *gin.Context) {
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
	var raws []json.RawMessage
	if err := json.Unmarshal(body, &raws); err != nil {
		writeJSON(c.Writer, http.StatusBadRequest, errJSON(fmt.Errorf("expected a JSON array of events: %w", err)))
		return
	}
	events := make([]blocks.StreamEvent, 0, len(raws))
	for i, raw := range raws {
		ev, err := blocks.UnmarshalEvent(raw)
		if err != nil {
			writeJSON(c.Writer, http.StatusBadRequest, errJSON(fmt.Errorf("event %d: %w", i, err)))
			return
		}
		events = append(events, ev)
	}
	writeJSON(c.Writer, http.StatusOK, d.Events(events))
}

func readBody(c *gin.Context) ([]byte, error) {
	b, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return b, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if v == nil {
		return
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err, ok := v.(error); ok {
		_ = enc.Encode(errJSON(err))
		return
	}
	_ = enc.Encode(v)
}

func errJSON(err error) map[string]string { return map[string]string{"error": err.Error()} }
