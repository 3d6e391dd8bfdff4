package server

import (
	"context"
	"errors"
	"io/fs"
	"mime"
	"net/http"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"chatdeck/internal/config"
	"chatdeck/internal/decorate"
	"chatdeck/internal/system"
	webembed "chatdeck/internal/webui/embed"
)

// Server serves the decorate API, the demo chat stream, sessions and the
// embedded SPA.
type Server struct {
	Addr     string
	Settings config.Settings

	sessions *sessionStore
	// chatDelay paces the demo chat stream.
	chatDelay time.Duration
}

// New returns a server bound to addr that decorates with settings.
func New(addr string, settings config.Settings) *Server {
	return &Server{
		Addr:      addr,
		Settings:  settings.Normalize(),
		sessions:  newSessionStore(),
		chatDelay: 20 * time.Millisecond,
	}
}

// Start listens on s.Addr until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{Addr: s.Addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()
	system.Logger.Info("webui server listening", "addr", s.Addr, "style", s.Settings.Style)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Handler builds the gin engine with every route mounted.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	s.mountAPI(r)
	mountEmbeddedUI(r)
	return r
}

// decorator returns the configured decorator, or the one named by a
// ?style= query override.
func (s *Server) decorator(c *gin.Context) (*decorate.Decorator, error) {
	st := s.Settings
	if v := strings.TrimSpace(c.Query("style")); v != "" {
		style, err := decorate.ParseStyle(v)
		if err != nil {
			return nil, err
		}
		st.Style = style
	}
	return st.Decorator(), nil
}

// OpenBrowser tries to open a URL in the system browser.
func OpenBrowser(url string) error {
	var cmd string
	var args []string
	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "windows":
		cmd = "rundll32"
		args = []string{"url.dll,FileProtocolHandler", url}
	default:
		cmd = "xdg-open"
		args = []string{url}
	}
	return exec.Command(cmd, args...).Start()
}

func (s *Server) mountAPI(r *gin.Engine) {
	api := r.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		writeJSON(c.Writer, http.StatusOK, map[string]string{"status": "ok"})
	})
	api.GET("/version", versionHandler)

	api.POST("/decorate", s.decorateHandler)
	api.POST("/decorate/events", s.decorateEventsHandler)

	api.POST("/chat", s.chatHandler)
	api.GET("/chat/:id/stream", chatReconnectHandler)

	api.GET("/sessions", s.listSessionsHandler)
	api.POST("/sessions", s.createSessionHandler)
	api.GET("/sessions/:id", s.sessionHandler)
	api.POST("/sessions/:id/messages", s.postMessageHandler)
	api.GET("/sessions/:id/stream", s.streamHandler)
	api.GET("/sessions/:id/transcript", s.transcriptHandler)
}

// mountEmbeddedUI serves embedded SPA at all non-/api GET routes with index fallback.
func mountEmbeddedUI(r *gin.Engine) {
	dist, err := fs.Sub(webembed.DistFS, "dist")
	if err != nil {
		r.NoRoute(func(c *gin.Context) {
			if isAPIPath(c.Request.URL.Path) {
				writeJSON(c.Writer, http.StatusNotFound, errJSON(errors.New("not found")))
				return
			}
			c.String(http.StatusNotFound, "webui assets not found.")
		})
		return
	}
	httpFS := http.FS(dist)
	r.NoRoute(func(c *gin.Context) {
		if isAPIPath(c.Request.URL.Path) {
			writeJSON(c.Writer, http.StatusNotFound, errJSON(errors.New("not found")))
			return
		}
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.Status(http.StatusNotFound)
			return
		}
		p := strings.TrimPrefix(c.Request.URL.Path, "/")
		if p != "" && p != "index.html" {
			if f, err := httpFS.Open(p); err == nil {
				_ = f.Close()
				if ct := mime.TypeByExtension(filepath.Ext(p)); ct != "" {
					c.Header("Content-Type", ct)
				}
				c.FileFromFS(p, httpFS)
				return
			}
		}
		// http.FileServer redirects */index.html, so the fallback is written directly.
		b, err := fs.ReadFile(dist, "index.html")
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				c.String(http.StatusNotFound, "index.html not found in embedded dist.")
				return
			}
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", b)
	})
}

func isAPIPath(p string) bool {
	return p == "/api" || strings.HasPrefix(p, "/api/")
}
