package observer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"siegecraft.ai/internal/protocol"
)

type fakeSource struct {
	mu    sync.Mutex
	board protocol.ScoreboardMsg
}

func (f *fakeSource) ID() string      { return "obs-test" }
func (f *fakeSource) Tick() uint64    { return 7 }
func (f *fakeSource) TickRateHz() int { return 50 }

func (f *fakeSource) Scoreboard() protocol.ScoreboardMsg {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.board
}

func (f *fakeSource) set(seq uint64, holder string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.board = protocol.ScoreboardMsg{
		Type:            protocol.TypeScoreboard,
		ProtocolVersion: protocol.Version,
		Seq:             seq,
		Teams:           []protocol.TeamBoard{},
		Items:           []protocol.ItemStatus{{Key: "horn", DisplayName: "horn", HolderID: holder}},
	}
}

func TestBootstrap(t *testing.T) {
	src := &fakeSource{}
	src.set(3, "P1")
	srv := httptest.NewServer(NewServer(src, nil).BootstrapHandler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var got BootstrapResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.SessionID != "obs-test" || got.Tick != 7 || got.Scoreboard.Seq != 3 {
		t.Fatalf("bootstrap: %+v", got)
	}
}

func TestBootstrap_RejectsRemote(t *testing.T) {
	h := NewServer(&fakeSource{}, nil).BootstrapHandler()
	req := httptest.NewRequest(http.MethodGet, "/v1/observer/bootstrap", nil)
	req.RemoteAddr = "10.1.2.3:5555"
	rec := httptest.NewRecorder()
	h(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status: %d", rec.Code)
	}
}

func TestWS_PushesOnlyOnChange(t *testing.T) {
	src := &fakeSource{}
	src.set(1, "P1")
	obs := NewServer(src, nil)
	srv := httptest.NewServer(obs.WSHandler())
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	read := func() protocol.ScoreboardMsg {
		t.Helper()
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, b, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var m protocol.ScoreboardMsg
		if err := json.Unmarshal(b, &m); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return m
	}

	if m := read(); m.Seq != 1 || m.Items[0].HolderID != "P1" {
		t.Fatalf("first: %+v", m)
	}
	src.set(2, "P2")
	if m := read(); m.Seq != 2 || m.Items[0].HolderID != "P2" {
		t.Fatalf("second: %+v", m)
	}
	if obs.Watchers() != 1 {
		t.Fatalf("watchers: %d", obs.Watchers())
	}
}
