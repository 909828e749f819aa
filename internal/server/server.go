// Package server serves the viewer UI and pushes stream summaries to browsers over WebSockets.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"rsframe-go/internal/config"
	"rsframe-go/internal/types"
)

//go:embed web/*
var webFS embed.FS

// Hooks give the server read access to pipeline state. Any of them may be nil.
type Hooks struct {
	Status   func() map[string]any
	Snapshot func() types.UISnapshot
	Latest   func(stream string) (types.FrameSummary, bool)
}

type client struct {
	id      string
	writeMu sync.Mutex
}

type Server struct {
	upgrader websocket.Upgrader
	clients  map[*websocket.Conn]*client
	mu       sync.Mutex
	cfg      config.AppConfig
	hooks    Hooks
	log      zerolog.Logger
}

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second
	pingEvery = (pongWait * 9) / 10
)

func New(cfg config.AppConfig, hooks Hooks, log zerolog.Logger) *Server {
	return &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]*client),
		cfg:     cfg,
		hooks:   hooks,
		log:     log.With().Str("component", "server").Logger(),
	}
}

// Handler routes the UI, the WebSocket endpoint and the JSON endpoints.
func (s *Server) Handler() (http.Handler, error) {
	sub, err := fs.Sub(webFS, "web")
	if err != nil {
		return nil, err
	}
	r := mux.NewRouter()
	r.HandleFunc("/ws", s.handleWS)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/config", s.handleConfig).Methods(http.MethodGet)
	r.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/streams", s.handleStreams).Methods(http.MethodGet)
	r.HandleFunc("/streams/{stream:.+}", s.handleStream).Methods(http.MethodGet)
	r.PathPrefix("/").Handler(http.FileServer(http.FS(sub)))
	return r, nil
}

// Run serves until ctx is done, broadcasting every value received on messages as JSON.
func (s *Server) Run(ctx context.Context, messages <-chan any) error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}
	httpServer := &http.Server{
		Addr:              ":" + strconv.Itoa(s.cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	go s.broadcast(ctx, messages)

	s.log.Info().Int("port", s.cfg.Port).Msg("ui listening")
	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	c := &client{id: uuid.NewString()}
	s.mu.Lock()
	s.clients[conn] = c
	s.mu.Unlock()
	s.log.Info().Str("session", c.id).Str("remote", r.RemoteAddr).Msg("client connected")

	hello := map[string]any{
		"type":    "hello",
		"session": c.id,
		"config":  s.configPayload(),
	}
	_ = s.writeJSON(conn, c, hello)

	go func() {
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(pingEvery)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					if err := s.writeMessage(conn, c, websocket.PingMessage, nil); err != nil {
						_ = conn.Close()
						return
					}
				}
			}
		}()
		defer close(done)
		defer s.removeClient(conn)
		for {
			messageType, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if messageType != websocket.TextMessage {
				continue
			}
			var request map[string]any
			if err := json.Unmarshal(payload, &request); err != nil {
				continue
			}
			if request["type"] == "snapshot_request" && s.hooks.Snapshot != nil {
				_ = s.writeJSON(conn, c, s.hooks.Snapshot())
			}
		}
	}()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) configPayload() map[string]any {
	return map[string]any{
		"port":     s.cfg.Port,
		"simulate": s.cfg.Simulate,
		"streams":  s.cfg.Streams,
		"ui_rate":  s.cfg.UIRate.String(),
	}
}

func (s *Server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSONResponse(w, http.StatusOK, s.configPayload())
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	payload := map[string]any{}
	if s.hooks.Status != nil {
		payload = s.hooks.Status()
	}
	payload["ws_clients"] = s.clientCount()
	writeJSONResponse(w, http.StatusOK, payload)
}

func (s *Server) handleStreams(w http.ResponseWriter, _ *http.Request) {
	snapshot := types.UISnapshot{Type: "snapshot", Streams: map[string]types.StreamSnapshot{}}
	if s.hooks.Snapshot != nil {
		snapshot = s.hooks.Snapshot()
	}
	writeJSONResponse(w, http.StatusOK, snapshot)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	stream := mux.Vars(r)["stream"]
	if s.hooks.Latest != nil {
		if summary, ok := s.hooks.Latest(stream); ok {
			writeJSONResponse(w, http.StatusOK, summary)
			return
		}
	}
	writeJSONResponse(w, http.StatusNotFound, map[string]any{"error": "no frames for stream " + stream})
}

func writeJSONResponse(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) broadcast(ctx context.Context, messages <-chan any) {
	for {
		select {
		case <-ctx.Done():
			return
		case message, ok := <-messages:
			if !ok {
				return
			}
			payload, err := json.Marshal(message)
			if err != nil {
				s.log.Warn().Err(err).Msg("broadcast marshal failed")
				continue
			}
			var stale []*websocket.Conn
			s.mu.Lock()
			for conn, c := range s.clients {
				if err := s.writeMessage(conn, c, websocket.TextMessage, payload); err != nil {
					stale = append(stale, conn)
				}
			}
			s.mu.Unlock()
			for _, conn := range stale {
				s.removeClient(conn)
			}
		}
	}
}

func (s *Server) removeClient(conn *websocket.Conn) {
	s.mu.Lock()
	c, ok := s.clients[conn]
	delete(s.clients, conn)
	s.mu.Unlock()
	if ok {
		s.log.Info().Str("session", c.id).Msg("client disconnected")
	}
	conn.Close()
}

func (s *Server) clientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) writeJSON(conn *websocket.Conn, c *client, payload any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(payload)
}

func (s *Server) writeMessage(conn *websocket.Conn, c *client, messageType int, payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(messageType, payload)
}
