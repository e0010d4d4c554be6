package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/GriffinCanCode/asciicam/internal/engine"
	"github.com/GriffinCanCode/asciicam/internal/params"
	"github.com/GriffinCanCode/asciicam/internal/scheduler"
	"github.com/GriffinCanCode/asciicam/internal/source"
	"github.com/GriffinCanCode/asciicam/internal/trace"
)

// Frames is the live render the server reads and broadcasts.
type Frames interface {
	Latest() (scheduler.Output, bool)
	Subscribe() (<-chan scheduler.Output, func())
	WritePNG(w io.Writer) error
}

// Renderer renders uploaded frames independently of the live loop.
type Renderer interface {
	Render(ctx context.Context, frame source.Frame, p params.Params) (engine.Result, error)
}

// Copier exports the latest render to the clipboard.
type Copier interface {
	Copy() (int, error)
}

// Deps are the collaborators a server needs.
type Deps struct {
	Frames   Frames
	Renderer Renderer
	Params   *params.Store
	Copier   Copier
	Notices  <-chan scheduler.Notice
}

// Server handles HTTP and WebSocket connections.
type Server struct {
	deps  Deps
	mu    sync.RWMutex
	conns map[*websocket.Conn]*rateLimiter
	done  chan struct{}
	wg    sync.WaitGroup
}

// New creates a server and starts its broadcasters.
func New(d Deps) *Server {
	s := &Server{
		deps:  d,
		conns: make(map[*websocket.Conn]*rateLimiter),
		done:  make(chan struct{}),
	}

	frames, unsubFrames := d.Frames.Subscribe()
	changes, unsubParams := d.Params.Subscribe()

	s.wg.Add(3)
	go func() {
		defer s.wg.Done()
		defer unsubFrames()
		s.broadcastFrames(frames)
	}()
	go func() {
		defer s.wg.Done()
		defer unsubParams()
		s.broadcastParams(changes)
	}()
	go func() {
		defer s.wg.Done()
		s.broadcastNotices(d.Notices)
	}()
	return s
}

// Close stops the broadcasters.
func (s *Server) Close() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	s.wg.Wait()
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/ws", s.handleWebSocket)

	mux.HandleFunc("GET /api/frame", s.handleFrame)
	mux.HandleFunc("GET /api/frame.png", s.handleFramePNG)
	mux.HandleFunc("GET /api/params", s.handleGetParams)
	mux.HandleFunc("POST /api/params", s.handleSetParams)
	mux.HandleFunc("POST /api/render", s.handleRender)
	mux.HandleFunc("POST /api/copy", s.handleCopy)

	// trace -> CORS
	return corsMiddleware(trace.Middleware(mux))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("websocket accept error", "error", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	rl := newRateLimiter(RateLimitMessages, RateLimitWindow)
	s.mu.Lock()
	s.conns[conn] = rl
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
	}()

	ctx := r.Context()
	log := trace.Logger(ctx)
	log.Info("websocket connected", "remote", r.RemoteAddr)

	// New clients get the current state straight away.
	_ = wsjson.Write(ctx, conn, ParamsMessage{Type: TypeParams, Params: s.deps.Params.Snapshot()})
	if out, ok := s.deps.Frames.Latest(); ok {
		_ = wsjson.Write(ctx, conn, frameMessage(out))
	}

	for {
		var msg json.RawMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			log.Debug("websocket read error", "error", err)
			return
		}

		if !rl.allow() {
			log.Warn("rate limit exceeded", "remote", r.RemoteAddr)
			_ = wsjson.Write(ctx, conn, ErrorMessage{Type: TypeRateLimited, Message: "rate limit exceeded"})
			continue
		}

		var base Message
		if err := json.Unmarshal(msg, &base); err != nil {
			continue
		}

		switch base.Type {
		case TypeParams:
			s.handleParamsMessage(ctx, conn, msg)
		case TypeCopy:
			s.handleCopyMessage(ctx, conn)
		default:
			_ = wsjson.Write(ctx, conn, ErrorMessage{Type: TypeError, Message: "unknown message type " + base.Type})
		}
	}
}

func (s *Server) handleParamsMessage(ctx context.Context, conn *websocket.Conn, raw json.RawMessage) {
	if tc, ok := trace.ExtractFromJSON(raw); ok {
		ctx = trace.WithContext(ctx, tc)
	}
	ctx, span := trace.StartSpan(ctx, "ws_params")
	defer span.Finish()

	var req ParamsRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return
	}
	p, err := s.applyPatch(req.Params)
	if err != nil {
		trace.Logger(ctx).Debug("rejected params", "error", err)
		_ = wsjson.Write(ctx, conn, errorMessage(err))
		return
	}
	span.SetAttr("version", s.deps.Params.Version())
	trace.Logger(ctx).Debug("params updated", "params", p)
}

func (s *Server) handleCopyMessage(ctx context.Context, conn *websocket.Conn) {
	n, err := s.deps.Copier.Copy()
	if err != nil {
		_ = wsjson.Write(ctx, conn, errorMessage(err))
		return
	}
	_ = wsjson.Write(ctx, conn, CopiedMessage{Type: TypeCopied, Bytes: n})
}

// applyPatch validates the patched parameters before storing them, so a bad
// field rejects the whole update.
func (s *Server) applyPatch(raw json.RawMessage) (params.Params, error) {
	pt, err := params.DecodePatch(raw)
	if err != nil {
		return params.Params{}, err
	}
	return s.deps.Params.Apply(pt)
}

func (s *Server) broadcast(msg any) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for conn := range s.conns {
		go func(c *websocket.Conn) {
			ctx, cancel := context.WithTimeout(context.Background(), WriteTimeout)
			defer cancel()
			_ = wsjson.Write(ctx, c, msg)
		}(conn)
	}
}

func (s *Server) broadcastFrames(frames <-chan scheduler.Output) {
	for {
		select {
		case <-s.done:
			return
		case out := <-frames:
			s.broadcast(frameMessage(out))
		}
	}
}

func (s *Server) broadcastParams(changes <-chan params.Params) {
	for {
		select {
		case <-s.done:
			return
		case p := <-changes:
			s.broadcast(ParamsMessage{Type: TypeParams, Params: p})
		}
	}
}

func (s *Server) broadcastNotices(notices <-chan scheduler.Notice) {
	for {
		select {
		case <-s.done:
			return
		case n, ok := <-notices:
			if !ok {
				return
			}
			s.broadcast(NoticeMessage{Type: TypeNotice, Level: n.Level, Message: n.Message, Source: n.Source})
		}
	}
}
