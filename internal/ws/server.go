package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/lightswitch/switchboard/internal/config"
	"github.com/lightswitch/switchboard/internal/hardware"
	"github.com/lightswitch/switchboard/internal/health"
	"github.com/lightswitch/switchboard/internal/metrics"
	"github.com/lightswitch/switchboard/internal/output"
	"github.com/lightswitch/switchboard/internal/protocol"
	"github.com/lightswitch/switchboard/internal/state"
)

// maxFrameSize bounds observer frames; a toggle request is a few dozen bytes.
const maxFrameSize = 512

// StateResponse is the JSON body of /api/state and the toggle endpoint.
type StateResponse struct {
	Lines   []int  `json:"lines"`
	Decimal uint8  `json:"decimal"`
	Hex     string `json:"hex"`
	Version uint64 `json:"version"`
}

func newStateResponse(v output.Vector, version uint64) StateResponse {
	view := v.View()
	return StateResponse{
		Lines:   protocol.LinesToInts(v),
		Decimal: view.Decimal,
		Hex:     view.Hex,
		Version: version,
	}
}

type Server struct {
	config         *config.Config
	store          *state.Store
	reconciler     *state.Reconciler
	broadcaster    *Broadcaster
	metrics        *metrics.Metrics
	health         *health.Reporter
	allowedOrigins map[string]bool
	allowedHosts   map[string]bool
}

func NewServer(cfg *config.Config, store *state.Store, reconciler *state.Reconciler, broadcaster *Broadcaster, m *metrics.Metrics, reporter *health.Reporter) *Server {
	s := &Server{
		config:         cfg,
		store:          store,
		reconciler:     reconciler,
		broadcaster:    broadcaster,
		metrics:        m,
		health:         reporter,
		allowedOrigins: make(map[string]bool),
		allowedHosts:   make(map[string]bool),
	}

	for _, origin := range cfg.Server.AllowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		s.allowedOrigins[trimmed] = true
		if parsed, err := url.Parse(trimmed); err == nil && parsed.Host != "" {
			s.allowedHosts[parsed.Host] = true
		}
	}

	return s
}

// Handler returns the controller's routes wrapped in request logging.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(logRequests)

	r.HandleFunc("/ws", s.handleWS).Methods(http.MethodGet)
	r.HandleFunc("/api/state", s.handleState).Methods(http.MethodGet)
	r.HandleFunc("/api/lines/{index}/toggle", s.handleToggle).Methods(http.MethodPost)
	r.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)
	if s.config.Metrics.Enabled {
		r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}
	return r
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// For /ws this covers the handshake only.
		m := httpsnoop.CaptureMetrics(next, w, r)
		log.Printf("%s %s %d %v", r.Method, r.URL.Path, m.Code, m.Duration)
	})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if s.broadcaster.Full() {
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: s.checkOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade error: %v", err)
		return
	}

	c, err := s.broadcaster.AddClient(conn)
	if err != nil {
		log.Printf("ws admit %s: %v", r.RemoteAddr, err)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error()),
			time.Now().Add(time.Second))
		conn.Close()
		return
	}
	log.Printf("WebSocket client connected: %s", r.RemoteAddr)

	go s.readPump(c, r.RemoteAddr)
}

// readPump handles toggle requests from one session until its connection
// breaks. Each request runs on its own goroutine so a slow line never
// stalls the session's receive loop. At most ws.max_pending_toggles run at
// once; frames past that are dropped.
func (s *Server) readPump(c *client, remote string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		s.broadcaster.RemoveClient(c)
		log.Printf("WebSocket client disconnected: %s", remote)
	}()

	limit := s.config.WS.MaxPendingToggles
	if limit < 1 {
		limit = 1
	}
	pending := make(chan struct{}, limit)

	conn := c.conn
	conn.SetReadLimit(maxFrameSize)
	pongTimeout := s.config.WS.PongTimeout
	conn.SetReadDeadline(time.Now().Add(pongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		index, err := protocol.DecodeToggle(data)
		if err != nil {
			log.Printf("ws %s: dropping frame: %v", remote, err)
			s.metrics.Dropped(metrics.DropMalformed)
			continue
		}
		if !output.ValidIndex(index) {
			log.Printf("ws %s: dropping toggle for index %d", remote, index)
			s.metrics.Dropped(metrics.DropInvalidIndex)
			continue
		}

		select {
		case pending <- struct{}{}:
			go func() {
				defer func() { <-pending }()
				s.toggle(ctx, index, remote)
			}()
		default:
			log.Printf("ws %s: dropping toggle for line %d, %d already pending", remote, index, limit)
			s.metrics.Dropped(metrics.DropSessionBusy)
		}
	}
}

func (s *Server) toggle(ctx context.Context, index int, requester string) (state.Change, error) {
	start := time.Now()
	line := strconv.Itoa(index)

	ch, err := s.reconciler.Apply(ctx, index)
	switch {
	case err == nil:
		s.metrics.Toggle(line, metrics.ResultApplied, time.Since(start).Seconds())
	case errors.Is(err, hardware.ErrHardwareFault):
		log.Printf("toggle line %d for %s failed: %v", index, requester, err)
		s.metrics.Toggle(line, metrics.ResultFault, 0)
	default:
		s.metrics.Toggle(line, metrics.ResultAborted, 0)
	}
	return ch, err
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	lines, version := s.store.Snapshot()
	writeJSON(w, http.StatusOK, newStateResponse(lines, version))
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil || !output.ValidIndex(index) {
		http.Error(w, "no such line", http.StatusNotFound)
		return
	}

	_, err = s.toggle(r.Context(), index, r.RemoteAddr)
	switch {
	case err == nil:
	case errors.Is(err, hardware.ErrHardwareFault):
		http.Error(w, "hardware fault", http.StatusBadGateway)
		return
	default:
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	lines, version := s.store.Snapshot()
	writeJSON(w, http.StatusOK, newStateResponse(lines, version))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	_, version := s.store.Snapshot()
	writeJSON(w, http.StatusOK, s.health.Report(s.broadcaster.ClientCount(), version))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if len(s.allowedOrigins) > 0 {
		if s.allowedOrigins[origin] {
			return true
		}
		if parsed, err := url.Parse(origin); err == nil && parsed.Host != "" {
			return s.allowedHosts[parsed.Host]
		}
		return false
	}

	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}

	host := parsed.Host
	if host == "" {
		return false
	}
	if host == r.Host {
		return true
	}

	switch parsed.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

// ListenAndServe serves h on addr until ctx is cancelled, then shuts down
// gracefully.
func ListenAndServe(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
