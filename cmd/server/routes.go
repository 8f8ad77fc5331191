package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/pprof"

	"siegecraft.ai/internal/sim/session"
	"siegecraft.ai/internal/transport/observer"
	"siegecraft.ai/internal/transport/ws"
)

type app struct {
	sess   *session.Session
	idx    runtimeIndex
	logger *log.Logger

	adminHTTP bool
	pprofHTTP bool
}

func (a *app) mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", a.metrics)
	mux.HandleFunc("/v1/scoreboard", func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(a.sess.Scoreboard())
	})
	mux.HandleFunc("/v1/ws", ws.NewServer(a.sess, a.logger).Handler())

	if a.adminHTTP {
		// Local-only admin endpoints.
		mux.HandleFunc("/admin/v1/state", func(rw http.ResponseWriter, r *http.Request) {
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			board := a.sess.Scoreboard()
			resp := struct {
				SessionID string            `json:"session_id"`
				Tick      uint64            `json:"tick"`
				Holders   map[string]string `json:"holders"`
			}{
				SessionID: a.sess.ID(),
				Tick:      a.sess.Tick(),
				Holders:   map[string]string{},
			}
			for _, it := range board.Items {
				resp.Holders[it.Key] = it.HolderID
			}
			rw.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(rw).Encode(resp)
		})

		obsSrv := observer.NewServer(a.sess, a.logger)
		mux.HandleFunc("/admin/v1/observer/bootstrap", obsSrv.BootstrapHandler())
		mux.HandleFunc("/admin/v1/observer/ws", obsSrv.WSHandler())
	} else if a.logger != nil {
		a.logger.Printf("admin endpoints disabled (SC_ENABLE_ADMIN_HTTP=false)")
	}
	if a.pprofHTTP {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	return mux
}

// metrics writes a minimal Prometheus exposition from concurrency-safe session state.
func (a *app) metrics(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
	sid := a.sess.ID()
	board := a.sess.Scoreboard()

	fmt.Fprintf(rw, "# HELP siegecraft_session_tick Current session tick.\n")
	fmt.Fprintf(rw, "# TYPE siegecraft_session_tick gauge\n")
	fmt.Fprintf(rw, "siegecraft_session_tick{session=%q} %d\n", sid, a.sess.Tick())

	fmt.Fprintf(rw, "# HELP siegecraft_team_members Participants per team.\n")
	fmt.Fprintf(rw, "# TYPE siegecraft_team_members gauge\n")
	for _, t := range board.Teams {
		fmt.Fprintf(rw, "siegecraft_team_members{session=%q,team=%q} %d\n", sid, t.TeamID, len(t.Members))
	}

	fmt.Fprintf(rw, "# HELP siegecraft_superitem_held Whether a super item currently has a holder.\n")
	fmt.Fprintf(rw, "# TYPE siegecraft_superitem_held gauge\n")
	for _, it := range board.Items {
		held := 0
		if it.HolderID != "" {
			held = 1
		}
		fmt.Fprintf(rw, "siegecraft_superitem_held{session=%q,key=%q} %d\n", sid, it.Key, held)
	}

	fmt.Fprintf(rw, "# HELP siegecraft_scoreboard_refreshes_total Shared scoreboard rebuilds.\n")
	fmt.Fprintf(rw, "# TYPE siegecraft_scoreboard_refreshes_total counter\n")
	fmt.Fprintf(rw, "siegecraft_scoreboard_refreshes_total{session=%q} %d\n", sid, a.sess.RefreshCount())

	if a.idx == nil {
		return
	}
	st := a.idx.Stats()
	fmt.Fprintf(rw, "# HELP siegecraft_index_dropped_total Index writes dropped because the queue was full.\n")
	fmt.Fprintf(rw, "# TYPE siegecraft_index_dropped_total counter\n")
	fmt.Fprintf(rw, "siegecraft_index_dropped_total{kind=%q} %d\n", "audit", st.DropAuditTotal)
	fmt.Fprintf(rw, "siegecraft_index_dropped_total{kind=%q} %d\n", "journal", st.DropJournalTotal)
	fmt.Fprintf(rw, "# HELP siegecraft_index_queue_depth Index writer backlog.\n")
	fmt.Fprintf(rw, "# TYPE siegecraft_index_queue_depth gauge\n")
	fmt.Fprintf(rw, "siegecraft_index_queue_depth %d\n", st.QueueDepth)
}
