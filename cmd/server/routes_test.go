package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"siegecraft.ai/internal/protocol"
	"siegecraft.ai/internal/sim/session"
	"siegecraft.ai/internal/sim/tuning"
)

func newTestApp(t *testing.T, admin bool) (*app, *httptest.Server) {
	t.Helper()
	sess, err := session.New(session.Config{Tuning: tuning.Defaults(), SessionID: "routes"})
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	sess.AddParticipant("alice", nil)
	a := &app{sess: sess, adminHTTP: admin}
	srv := httptest.NewServer(a.mux())
	t.Cleanup(srv.Close)
	return a, srv
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return resp.StatusCode, string(b)
}

func TestHealthz(t *testing.T) {
	_, srv := newTestApp(t, false)
	if code, body := get(t, srv.URL+"/healthz"); code != 200 || body != "ok" {
		t.Fatalf("healthz: %d %q", code, body)
	}
}

func TestScoreboardEndpoint(t *testing.T) {
	_, srv := newTestApp(t, false)
	code, body := get(t, srv.URL+"/v1/scoreboard")
	if code != 200 {
		t.Fatalf("status %d", code)
	}
	var board protocol.ScoreboardMsg
	if err := json.Unmarshal([]byte(body), &board); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if board.Type != protocol.TypeScoreboard || len(board.Teams) != 2 || len(board.Teams[0].SuperItems) != 1 {
		t.Fatalf("board: %+v", board)
	}
}

func TestMetrics(t *testing.T) {
	_, srv := newTestApp(t, false)
	_, body := get(t, srv.URL+"/metrics")
	for _, want := range []string{
		`siegecraft_session_tick{session="routes"} 0`,
		`siegecraft_team_members{session="routes",team="red"} 1`,
		`siegecraft_superitem_held{session="routes",key="horn"} 1`,
		`siegecraft_superitem_held{session="routes",key="shield"} 0`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics missing %q:\n%s", want, body)
		}
	}
	if strings.Contains(body, "siegecraft_index_") {
		t.Fatalf("index metrics without an index")
	}
}

func TestAdminState(t *testing.T) {
	a, srv := newTestApp(t, true)
	code, body := get(t, srv.URL+"/admin/v1/state")
	if code != 200 {
		t.Fatalf("status %d", code)
	}
	var resp struct {
		SessionID string            `json:"session_id"`
		Holders   map[string]string `json:"holders"`
	}
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	holder, _ := a.sess.SuperItems().HolderOf("horn")
	if resp.SessionID != "routes" || resp.Holders["horn"] != holder || resp.Holders["shield"] != "" {
		t.Fatalf("state: %+v", resp)
	}
}

func TestAdminDisabled(t *testing.T) {
	_, srv := newTestApp(t, false)
	if code, _ := get(t, srv.URL+"/admin/v1/state"); code != http.StatusNotFound {
		t.Fatalf("admin should be off: %d", code)
	}
}

func TestMultiJournal_FansOut(t *testing.T) {
	a, b := &countJournal{}, &countJournal{}
	j := multiJournal{a, nil, b}
	_ = j.WriteJournal(session.JournalEntry{Kind: protocol.EventMove})
	if a.n != 1 || b.n != 1 {
		t.Fatalf("fan out: %d %d", a.n, b.n)
	}
}

type countJournal struct{ n int }

func (c *countJournal) WriteJournal(session.JournalEntry) error {
	c.n++
	return nil
}
