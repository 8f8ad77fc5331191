package observer

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"siegecraft.ai/internal/protocol"
)

// Source exposes the latest shared scoreboard. Implementations must be safe
// for concurrent use; *session.Session is.
type Source interface {
	ID() string
	Tick() uint64
	TickRateHz() int
	Scoreboard() protocol.ScoreboardMsg
}

type BootstrapResponse struct {
	ProtocolVersion string                 `json:"protocol_version"`
	SessionID       string                 `json:"session_id"`
	Tick            uint64                 `json:"tick"`
	TickRateHz      int                    `json:"tick_rate_hz"`
	Scoreboard      protocol.ScoreboardMsg `json:"scoreboard"`
}

// Server streams scoreboard changes to loopback spectators.
type Server struct {
	src Source
	log *log.Logger

	upgrader websocket.Upgrader
	watchers atomic.Int64
}

func NewServer(src Source, logger *log.Logger) *Server {
	return &Server{
		src: src,
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Watchers() int64 { return s.watchers.Load() }

func (s *Server) BootstrapHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		resp := BootstrapResponse{
			ProtocolVersion: protocol.Version,
			SessionID:       s.src.ID(),
			Tick:            s.src.Tick(),
			TickRateHz:      s.src.TickRateHz(),
			Scoreboard:      s.src.Scoreboard(),
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(resp)
	}
}

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		s.watchers.Add(1)
		defer s.watchers.Add(-1)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Reader loop only notices the close; spectators send nothing.
		go func() {
			defer cancel()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		hz := s.src.TickRateHz()
		if hz <= 0 {
			hz = 20
		}
		ticker := time.NewTicker(time.Second / time.Duration(hz))
		defer ticker.Stop()

		var lastSeq uint64
		sent := false
		for {
			board := s.src.Scoreboard()
			if !sent || board.Seq != lastSeq {
				b, err := json.Marshal(board)
				if err != nil {
					s.logf("observer marshal: %v", err)
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					return
				}
				lastSeq, sent = board.Seq, true
			}
			select {
			case <-ctx.Done():
				_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))
				return
			case <-ticker.C:
			}
		}
	}
}

func (s *Server) logf(format string, args ...any) {
	if s.log != nil {
		s.log.Printf(format, args...)
	}
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
