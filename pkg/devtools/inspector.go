package devtools

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/rx/pkg/state"
)

// WriteMeta is the metadata attached to writes made from the inspector.
const WriteMeta = "devtools"

// Message types sent to clients.
const (
	TypeSnapshot  = "snapshot"
	TypeWatching  = "watching"
	TypeUnwatched = "unwatched"
	TypeChange    = "change"
	TypeAck       = "ack"
	TypeError     = "error"
)

// Request is a client message.
type Request struct {
	Op    string `json:"op"`
	Path  string `json:"path,omitempty"`
	Value any    `json:"value,omitempty"`
}

// Message is a server message.
type Message struct {
	Type          string         `json:"type"`
	Path          string         `json:"path,omitempty"`
	Changed       string         `json:"changed,omitempty"`
	Value         any            `json:"value,omitempty"`
	State         map[string]any `json:"state,omitempty"`
	Subscriptions int            `json:"subscriptions,omitempty"`
	Error         string         `json:"error,omitempty"`
}

// Config configures an Inspector.
type Config struct {
	// Store is the inspected store. Required.
	Store *state.Store

	// Logger defaults to the store's logger.
	Logger *slog.Logger

	// AllowWrites enables the set and delete ops.
	AllowWrites bool

	// CheckOrigin is passed to the websocket upgrader. Nil allows
	// same-origin requests only.
	CheckOrigin func(r *http.Request) bool

	// WriteTimeout bounds each frame write. Default: 10 seconds.
	WriteTimeout time.Duration

	// Buffer is the per-connection outgoing queue length. Messages beyond
	// it are dropped. Default: 256.
	Buffer int
}

// Inspector is an http.Handler upgrading requests to inspector sessions.
type Inspector struct {
	store    *state.Store
	logger   *slog.Logger
	config   Config
	upgrader websocket.Upgrader
	clients  atomic.Int64
}

// New creates an Inspector.
func New(cfg Config) *Inspector {
	if cfg.Logger == nil {
		cfg.Logger = cfg.Store.Logger()
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = 256
	}
	return &Inspector{
		store:  cfg.Store,
		logger: cfg.Logger,
		config: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     cfg.CheckOrigin,
		},
	}
}

// Clients returns the number of connected clients.
func (i *Inspector) Clients() int {
	return int(i.clients.Load())
}

// ServeHTTP implements http.Handler.
func (i *Inspector) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := i.upgrader.Upgrade(w, r, nil)
	if err != nil {
		i.logger.Debug("devtools upgrade failed", "error", err)
		return
	}

	s := &session{
		insp:    i,
		conn:    conn,
		out:     make(chan Message, i.config.Buffer),
		done:    make(chan struct{}),
		watches: make(map[string]func()),
	}
	i.clients.Add(1)
	i.logger.Info("devtools client connected", "remote", r.RemoteAddr)

	go s.writeLoop()
	s.readLoop()
	s.close()

	i.clients.Add(-1)
	i.logger.Info("devtools client disconnected",
		"remote", r.RemoteAddr,
		"dropped", s.dropped.Load())
}

// onLoop runs fn on the store's loop and waits for it to finish.
func (i *Inspector) onLoop(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	i.store.Loop().Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type session struct {
	insp *Inspector
	conn *websocket.Conn
	out  chan Message
	done chan struct{}
	once sync.Once

	// watches is only touched on the loop.
	watches map[string]func()
	dropped atomic.Int64
}

func (s *session) readLoop() {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.insp.logger.Debug("devtools read failed", "error", err)
			}
			return
		}
		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			s.send(Message{Type: TypeError, Error: "malformed request"})
			continue
		}
		s.handle(req)
	}
}

func (s *session) writeLoop() {
	for {
		select {
		case m := <-s.out:
			s.conn.SetWriteDeadline(time.Now().Add(s.insp.config.WriteTimeout))
			if err := s.conn.WriteJSON(m); err != nil {
				s.insp.logger.Debug("devtools write failed", "error", err)
				s.conn.Close()
				return
			}
		case <-s.done:
			return
		}
	}
}

// send queues m without blocking. Safe from any goroutine.
func (s *session) send(m Message) {
	select {
	case <-s.done:
		return
	default:
	}
	select {
	case s.out <- m:
	default:
		if s.dropped.Add(1) == 1 {
			s.insp.logger.Warn("devtools client too slow, dropping messages")
		}
	}
}

func (s *session) handle(req Request) {
	store := s.insp.store
	ctx, cancel := context.WithTimeout(context.Background(), s.insp.config.WriteTimeout)
	defer cancel()

	var run func()
	switch req.Op {
	case "snapshot":
		run = func() {
			s.send(Message{
				Type:          TypeSnapshot,
				State:         store.Snapshot(),
				Subscriptions: store.Subscriptions(),
			})
		}
	case "watch":
		if !state.ValidPath(req.Path) {
			s.send(Message{Type: TypeError, Path: req.Path, Error: "invalid path"})
			return
		}
		run = func() { s.watch(req.Path) }
	case "unwatch":
		run = func() {
			if unsub, ok := s.watches[req.Path]; ok {
				unsub()
				delete(s.watches, req.Path)
			}
			s.send(Message{Type: TypeUnwatched, Path: req.Path})
		}
	case "set", "delete":
		if !s.insp.config.AllowWrites {
			s.send(Message{Type: TypeError, Path: req.Path, Error: "writes are disabled"})
			return
		}
		if !state.ValidPath(req.Path) {
			s.send(Message{Type: TypeError, Path: req.Path, Error: "invalid path"})
			return
		}
		run = func() {
			if req.Op == "delete" {
				store.Delete(req.Path)
			} else {
				store.SetWith(req.Path, normalize(req.Value), WriteMeta)
			}
			s.send(Message{Type: TypeAck, Path: req.Path})
		}
	default:
		s.send(Message{Type: TypeError, Error: "unknown op " + req.Op})
		return
	}

	if err := s.insp.onLoop(ctx, run); err != nil {
		s.send(Message{Type: TypeError, Path: req.Path, Error: "runtime busy"})
	}
}

// watch subscribes to path. It runs on the loop.
func (s *session) watch(path string) {
	store := s.insp.store
	if _, ok := s.watches[path]; !ok {
		s.watches[path] = store.Subscribe(path, func(c state.Change) {
			s.send(Message{
				Type:    TypeChange,
				Path:    c.Path,
				Changed: c.Changed,
				Value:   state.Copy(c.Value),
			})
		}, true)
	}
	s.send(Message{
		Type:  TypeWatching,
		Path:  path,
		Value: state.Copy(store.GetUntracked(path, nil)),
	})
}

func (s *session) close() {
	s.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		err := s.insp.onLoop(ctx, func() {
			for path, unsub := range s.watches {
				unsub()
				delete(s.watches, path)
			}
		})
		if err != nil {
			s.insp.logger.Warn("devtools subscriptions not released", "error", err)
		}
		close(s.done)
		s.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		s.conn.Close()
	})
}

// normalize turns whole JSON numbers into ints so values written from the
// inspector compare equal to values written by Go code.
func normalize(v any) any {
	switch x := v.(type) {
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
			return int(x)
		}
		return x
	case map[string]any:
		for k, e := range x {
			x[k] = normalize(e)
		}
		return x
	case []any:
		for i, e := range x {
			x[i] = normalize(e)
		}
		return x
	default:
		return v
	}
}
