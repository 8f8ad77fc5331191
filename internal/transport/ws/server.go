package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"siegecraft.ai/internal/protocol"
	"siegecraft.ai/internal/sim/session"
)

// Host is the session side of the bridge. *session.Session satisfies it.
type Host interface {
	Join() chan<- session.JoinRequest
	Leave() chan<- string
	Inbox() chan<- session.EventEnvelope
	Done() <-chan struct{}
}

type Server struct {
	host Host
	log  *log.Logger

	upgrader websocket.Upgrader
	outQueue int
	write    func(conn *websocket.Conn, v any) error
}

func NewServer(h Host, logger *log.Logger) *Server {
	s := &Server{
		host:     h,
		log:      logger,
		outQueue: 32,
		write:    writeJSON,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	return s
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		participantID, out := s.handshake(conn)
		if participantID == "" {
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil {
				s.reject(out, protocol.ErrProtoBadRequest, "malformed json")
				continue
			}
			if base.Type != protocol.TypeEvent {
				s.reject(out, protocol.ErrProtoBadRequest, "unexpected message type "+base.Type)
				continue
			}
			var ev protocol.EventMsg
			if err := json.Unmarshal(msg, &ev); err != nil {
				s.reject(out, protocol.ErrProtoBadRequest, "bad event")
				continue
			}
			if ev.ProtocolVersion != protocol.Version {
				s.reject(out, protocol.ErrProtoBadRequest, "bad protocol_version")
				continue
			}
			select {
			case s.host.Inbox() <- session.EventEnvelope{ParticipantID: participantID, Msg: ev}:
			case <-s.host.Done():
				return
			case <-time.After(time.Second):
				s.reject(out, protocol.ErrSessionBusy, "session busy")
			}
		}

		s.leave(participantID)
	}
}

// leave hands the disconnect to the session, waiting until it is taken or the session stops.
func (s *Server) leave(participantID string) {
	select {
	case s.host.Leave() <- participantID:
	case <-s.host.Done():
	}
}

func (s *Server) handshake(conn *websocket.Conn) (participantID string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		closePolicy(conn, "expected HELLO")
		return "", nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		closePolicy(conn, "bad HELLO")
		return "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		closePolicy(conn, "bad protocol_version")
		return "", nil
	}

	out = make(chan []byte, s.outQueue)
	respCh := make(chan session.JoinResponse, 1)
	select {
	case s.host.Join() <- session.JoinRequest{Name: strings.TrimSpace(hello.ParticipantName), Out: out, Resp: respCh}:
	case <-s.host.Done():
		return "", nil
	case <-time.After(5 * time.Second):
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "session busy"), time.Now().Add(time.Second))
		return "", nil
	}

	var resp session.JoinResponse
	select {
	case resp = <-respCh:
	case <-s.host.Done():
		return "", nil
	}

	// The session already added the participant; it must leave again if the client is gone.
	if err := s.write(conn, resp.Welcome); err != nil {
		s.logf("welcome to %s: %v", resp.Welcome.ParticipantID, err)
		s.leave(resp.Welcome.ParticipantID)
		return "", nil
	}
	return resp.Welcome.ParticipantID, out
}

// reject queues an ERROR on the client's outbound channel; the writer goroutine
// owns the connection.
func (s *Server) reject(out chan []byte, code, message string) {
	b, err := json.Marshal(protocol.ErrorMsg{
		Type:            protocol.TypeError,
		ProtocolVersion: protocol.Version,
		Code:            code,
		Message:         message,
	})
	if err != nil {
		return
	}
	select {
	case out <- b:
	default:
	}
}

func (s *Server) logf(format string, args ...any) {
	if s.log != nil {
		s.log.Printf(format, args...)
	}
}

func closePolicy(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
