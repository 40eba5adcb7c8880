// Package feed serves session snapshots to dashboards over HTTP and WebSocket.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/cors"

	"github.com/dbsDevelops/f1-24-setup-recommender/log"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/model"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/processing"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/utils/broadcast"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/wire"
)

const (
	writeDeadline = 5 * time.Second
	readDeadline  = 90 * time.Second
	pingInterval  = 30 * time.Second
	maxReadSize   = 4 * 1024
	queueSize     = 8
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 32 * 1024,
	// origins are checked by the cors handler
	CheckOrigin: func(r *http.Request) bool { return true },
}

type receptionView struct {
	Timestamp time.Time         `json:"timestamp"`
	Counts    map[string]uint32 `json:"counts"`
}

// Server publishes the latest snapshot. New WebSocket clients receive the
// current state first and every following snapshot afterwards.
type Server struct {
	addr           string
	allowedOrigins []string
	source         chan []byte
	bcst           broadcast.BroadcastServer[[]byte]
	mu             sync.RWMutex
	state          []byte
	reception      []byte
	dropped        atomic.Int64
	listener       net.Listener
	server         *http.Server
	closeOnce      sync.Once
	l              *log.Logger
}

type Option func(*Server)

// WithAddr sets the listen address, default is 127.0.0.1:8080.
func WithAddr(addr string) Option {
	return func(s *Server) {
		s.addr = addr
	}
}

func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		s.allowedOrigins = origins
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		s.l = l
	}
}

func NewServer(opts ...Option) *Server {
	s := &Server{
		addr:           "127.0.0.1:8080",
		allowedOrigins: []string{"*"},
		source:         make(chan []byte, queueSize),
		l:              log.Default().Named("feed"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start listens on the configured address and serves until Stop is called.
func (s *Server) Start(ctx context.Context) error {
	if s.server != nil {
		return errors.New("feed: already started")
	}
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("feed: listen: %w", err)
	}
	s.listener = ln
	s.bcst = broadcast.NewBroadcastServer("feed", s.source,
		broadcast.WithTopic[[]byte]("snapshot"),
		broadcast.WithBufferSize[[]byte](queueSize),
		broadcast.WithLogger[[]byte](s.l.Named("bcst")))

	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.l.Error("feed server stopped", log.ErrorField(err))
		}
	}()
	s.l.Info("feed started", log.String("addr", ln.Addr().String()))
	return nil
}

// Handler returns the routes wrapped by the cors handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /state", s.handleState)
	mux.HandleFunc("GET /reception", s.handleReception)
	mux.HandleFunc("/ws", s.handleWS)
	return cors.New(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{http.MethodGet},
	}).Handler(mux)
}

// Addr returns the bound address, nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) Stop() error {
	var err error
	s.closeOnce.Do(func() {
		if s.server == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = s.server.Shutdown(ctx)
		s.bcst.Close()
		s.l.Info("feed stopped", log.Int64("dropped", s.dropped.Load()))
	})
	return err
}

func (s *Server) HandlePacket(context.Context, wire.Packet, processing.Result) {}

// HandleSnapshot stores s as current state and queues it for the WebSocket
// clients. The snapshot is dropped for the clients if the queue is full.
func (s *Server) HandleSnapshot(_ context.Context, snap *model.Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		s.l.Error("could not marshal snapshot", log.ErrorField(err))
		return
	}
	reception, err := json.Marshal(receptionView{Timestamp: snap.Timestamp, Counts: snap.Reception})
	if err != nil {
		s.l.Error("could not marshal reception", log.ErrorField(err))
		return
	}
	s.mu.Lock()
	s.state = data
	s.reception = reception
	s.mu.Unlock()
	select {
	case s.source <- data:
	default:
		s.dropped.Add(1)
	}
}

func (s *Server) current() (state, reception []byte) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state, s.reception
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	state, _ := s.current()
	writeJSON(w, state)
}

func (s *Server) handleReception(w http.ResponseWriter, _ *http.Request) {
	_, reception := s.current()
	writeJSON(w, reception)
}

func writeJSON(w http.ResponseWriter, data []byte) {
	if data == nil {
		http.Error(w, "no data received yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(data); err != nil {
		log.Debug("write response", log.ErrorField(err))
	}
}

//nolint:funlen // by design
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if s.bcst == nil {
		http.Error(w, "feed not started", http.StatusServiceUnavailable)
		return
	}
	// subscribe before the upgrade completes, a client must not miss
	// snapshots sent right after its handshake
	ch := s.bcst.Subscribe()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.bcst.CancelSubscription(ch)
		s.l.Warn("upgrade failed", log.ErrorField(err))
		return
	}
	l := s.l.With(log.String("remote", conn.RemoteAddr().String()))
	l.Debug("client connected")
	defer func() {
		s.bcst.CancelSubscription(ch)
		if err := conn.Close(); err != nil {
			l.Debug("close", log.ErrorField(err))
		}
		l.Debug("client disconnected")
	}()

	conn.SetReadLimit(maxReadSize)
	if err := conn.SetReadDeadline(time.Now().Add(readDeadline)); err != nil {
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readDeadline))
	})
	// the read pump only handles control frames and detects closed clients
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err,
					websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					l.Debug("read error", log.ErrorField(err))
				}
				return
			}
		}
	}()

	write := func(mt int, data []byte) bool {
		if err := conn.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
			return false
		}
		if err := conn.WriteMessage(mt, data); err != nil {
			l.Debug("write failed", log.ErrorField(err))
			return false
		}
		return true
	}
	if state, _ := s.current(); state != nil {
		if !write(websocket.TextMessage, state) {
			return
		}
	}
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	for {
		select {
		case <-readDone:
			return
		case <-ping.C:
			if !write(websocket.PingMessage, nil) {
				return
			}
		case data, ok := <-ch:
			if !ok {
				_ = write(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"))
				return
			}
			if !write(websocket.TextMessage, data) {
				return
			}
		}
	}
}
