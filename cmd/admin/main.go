package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	persistlog "siegecraft.ai/internal/persistence/log"
	"siegecraft.ai/internal/sim/session"
	"siegecraft.ai/internal/sim/superitems"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "audit":
			auditCmd(os.Args[2:])
			return
		case "history":
			historyCmd(os.Args[2:])
			return
		case "db":
			dbCmd(os.Args[2:])
			return
		case "state":
			stateCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	_ = fs.Parse(args)

	entries, err := os.ReadDir(filepath.Join(*dataDir, "sessions"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for _, e := range entries {
		if e.IsDir() {
			fmt.Println(e.Name())
		}
	}
}

func sessionDirFlag(fs *flag.FlagSet) func() string {
	dataDir := fs.String("data", "./data", "runtime data directory")
	sessionID := fs.String("session", "", "session id (required)")
	return func() string {
		if strings.TrimSpace(*sessionID) == "" {
			fmt.Fprintln(os.Stderr, "missing -session")
			os.Exit(2)
		}
		return filepath.Join(*dataDir, "sessions", *sessionID)
	}
}

// auditCmd prints matching audit entries from the compressed JSONL logs, one per line.
func auditCmd(args []string) {
	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	dir := sessionDirFlag(fs)
	var f auditFilter
	fs.StringVar(&f.Action, "action", "", "action filter (e.g. SUPERITEM_GRANT)")
	fs.StringVar(&f.Actor, "actor", "", "actor filter")
	fs.StringVar(&f.Key, "key", "", "super item key filter")
	fs.Uint64Var(&f.SinceTick, "since_tick", 0, "first tick (inclusive)")
	fs.Uint64Var(&f.ToTick, "to_tick", 0, "last tick (inclusive, 0 = no limit)")
	_ = fs.Parse(args)

	enc := json.NewEncoder(os.Stdout)
	err := persistlog.ReadAudits(dir(), func(e session.AuditEntry) error {
		if !f.match(e) {
			return nil
		}
		return enc.Encode(e)
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "read audit:", err)
		os.Exit(1)
	}
}

// historyCmd replays ownership audits into holder spans per super item.
func historyCmd(args []string) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	dir := sessionDirFlag(fs)
	key := fs.String("key", "", "super item key (optional)")
	_ = fs.Parse(args)

	var entries []session.AuditEntry
	err := persistlog.ReadAudits(dir(), func(e session.AuditEntry) error {
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "read audit:", err)
		os.Exit(1)
	}

	spans := replayHolders(entries)
	keys := make([]string, 0, len(spans))
	for k := range spans {
		if *key == "" || k == *key {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, sp := range spans[k] {
			to := "now"
			if !sp.Open {
				to = fmt.Sprintf("%d", sp.ToTick)
			}
			fmt.Printf("%s holder=%s ticks=%d..%s granted=%s revoked=%s\n", k, sp.Holder, sp.FromTick, to, sp.GrantReason, sp.RevokeReason)
		}
	}
}

type auditFilter struct {
	Action    string
	Actor     string
	Key       string
	SinceTick uint64
	ToTick    uint64
}

func (f auditFilter) match(e session.AuditEntry) bool {
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.Actor != "" && e.Actor != f.Actor {
		return false
	}
	if f.Key != "" && entryKey(e) != f.Key {
		return false
	}
	if e.Tick < f.SinceTick {
		return false
	}
	if f.ToTick != 0 && e.Tick > f.ToTick {
		return false
	}
	return true
}

func entryKey(e session.AuditEntry) string {
	k, _ := e.Details["key"].(string)
	return k
}

type holderSpan struct {
	Holder       string
	FromTick     uint64
	ToTick       uint64
	Open         bool
	GrantReason  string
	RevokeReason string
}

// replayHolders rebuilds who held each super item and when. Entries must be in log order.
func replayHolders(entries []session.AuditEntry) map[string][]holderSpan {
	out := map[string][]holderSpan{}
	closeOpen := func(key string, tick uint64, reason string) {
		spans := out[key]
		if n := len(spans); n > 0 && spans[n-1].Open {
			spans[n-1].Open = false
			spans[n-1].ToTick = tick
			spans[n-1].RevokeReason = reason
		}
	}
	for _, e := range entries {
		key := entryKey(e)
		if key == "" {
			continue
		}
		switch e.Action {
		case superitems.AuditGrant:
			closeOpen(key, e.Tick, e.Reason)
			out[key] = append(out[key], holderSpan{Holder: e.Actor, FromTick: e.Tick, Open: true, GrantReason: e.Reason})
		case superitems.AuditRevoke:
			closeOpen(key, e.Tick, e.Reason)
		}
	}
	return out
}
