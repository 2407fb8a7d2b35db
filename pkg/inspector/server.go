// Package inspector serves a read-only HTTP view of a running display: the
// widget tree, the backend configuration, the dirty set and metrics. It can
// also host the renderer websocket so one port serves both.
package inspector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/go-drift/evolve/pkg/config"
	"github.com/go-drift/evolve/pkg/transport/ws"
	"github.com/go-drift/evolve/pkg/widgets"
)

// maxTreeDepth limits recursion when describing malformed trees.
const maxTreeDepth = 500

const uiTimeout = 2 * time.Second

// Server is the inspector HTTP server.
type Server struct {
	display *widgets.Display
	ws      *ws.Server
	logger  *slog.Logger
	router  *gin.Engine

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// Option configures a Server.
type Option func(*Server)

// WithWebsocket mounts the renderer websocket at /ws.
func WithWebsocket(s *ws.Server) Option {
	return func(srv *Server) { srv.ws = s }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(srv *Server) { srv.logger = l }
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Error string `json:"error"`
}

// DirtyResponse reports the pending flush state.
type DirtyResponse struct {
	Dirty int  `json:"dirty"`
	Ready bool `json:"ready"`
}

// ResolveResponse reports which backend a class would get as a root.
type ResolveResponse struct {
	Class      string         `json:"class"`
	Variant    config.Variant `json:"variant"`
	Embeddable bool           `json:"embeddable"`
	Group      []string       `json:"group,omitempty"`
}

// DebugResponse summarizes the display.
type DebugResponse struct {
	Widgets  int      `json:"widgets"`
	Roots    int      `json:"roots"`
	Disposed bool     `json:"disposed"`
	Sessions []string `json:"sessions"`
}

// New creates an inspector for d.
func New(d *widgets.Display, opts ...Option) *Server {
	s := &Server{display: d, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.registerRoutes(s.router)
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) registerRoutes(r gin.IRouter) {
	r.GET("/health", s.handleHealth)
	r.GET("/tree", s.handleTree)
	r.GET("/tree/:id", s.handleWidget)
	r.GET("/config", s.handleConfig)
	r.GET("/resolve/:class", s.handleResolve)
	r.GET("/dirty", s.handleDirty)
	r.GET("/debug", s.handleDebug)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if s.ws != nil {
		r.GET("/ws", gin.WrapH(s.ws))
	}
}

// Start listens on addr and serves in the background. It returns the bound
// address, which differs from addr when addr has port 0.
func (s *Server) Start(addr string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server != nil {
		return s.listener.Addr().String(), nil
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("inspector listen: %w", err)
	}
	server := &http.Server{Handler: s.router, ReadHeaderTimeout: 5 * time.Second}
	s.server = server
	s.listener = listener

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.mu.Lock()
			s.server = nil
			s.listener = nil
			s.mu.Unlock()
			s.logger.Error("inspector stopped", "error", err)
		}
	}()
	s.logger.Info("inspector listening", "addr", listener.Addr().String())
	return listener.Addr().String(), nil
}

// Stop shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	server := s.server
	s.server = nil
	s.listener = nil
	s.mu.Unlock()
	if server == nil {
		return nil
	}
	if s.ws != nil {
		_ = s.ws.Close()
	}
	return server.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// onUI runs fn on the display's UI goroutine.
func (s *Server) onUI(c *gin.Context, fn func()) bool {
	if s.display.IsDisposed() {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "display disposed"})
		return false
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), uiTimeout)
	defer cancel()
	if err := s.display.SyncExec(ctx, fn); err != nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
		return false
	}
	return true
}

func (s *Server) handleTree(c *gin.Context) {
	var roots []widgets.Description
	if !s.onUI(c, func() {
		for _, r := range s.display.Roots() {
			roots = append(roots, truncate(widgets.Describe(r), 0))
		}
	}) {
		return
	}
	if roots == nil {
		roots = []widgets.Description{}
	}
	c.JSON(http.StatusOK, roots)
}

func (s *Server) handleWidget(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "id must be an integer"})
		return
	}
	var (
		desc  widgets.Description
		found bool
	)
	if !s.onUI(c, func() {
		if w, ok := s.display.Find(id); ok {
			desc, found = truncate(widgets.Describe(w), 0), true
		}
	}) {
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: fmt.Sprintf("widget %d not found", id)})
		return
	}
	c.JSON(http.StatusOK, desc)
}

func (s *Server) handleConfig(c *gin.Context) {
	c.JSON(http.StatusOK, s.display.Registry().Snapshot())
}

func (s *Server) handleResolve(c *gin.Context) {
	class, ok := widgets.LookupClass(c.Param("class"))
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: fmt.Sprintf("unknown class %q", c.Param("class"))})
		return
	}
	reg := s.display.Registry()
	c.JSON(http.StatusOK, ResolveResponse{
		Class:      class.Name(),
		Variant:    reg.Resolve(class),
		Embeddable: class.Embeddable(),
		Group:      reg.DependencyGroup(class.Name()),
	})
}

func (s *Server) handleDirty(c *gin.Context) {
	b := s.display.Bridge()
	c.JSON(http.StatusOK, DirtyResponse{Dirty: b.Tracker().Len(), Ready: b.Ready()})
}

func (s *Server) handleDebug(c *gin.Context) {
	resp := DebugResponse{Disposed: s.display.IsDisposed(), Sessions: []string{}}
	if s.ws != nil {
		resp.Sessions = s.ws.Sessions()
	}
	if !resp.Disposed {
		if !s.onUI(c, func() {
			resp.Widgets = s.display.Len()
			resp.Roots = len(s.display.Roots())
		}) {
			return
		}
	}
	c.JSON(http.StatusOK, resp)
}

func truncate(d widgets.Description, depth int) widgets.Description {
	if depth >= maxTreeDepth {
		d.Children = nil
		return d
	}
	for i := range d.Children {
		d.Children[i] = truncate(d.Children[i], depth+1)
	}
	return d
}
