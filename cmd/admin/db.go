package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"siegecraft.ai/internal/persistence/indexdb"
)

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	sessionID := fs.String("session", "", "session id (required unless -db)")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	limit := fs.Int("limit", 20, "result limit")
	key := fs.String("key", "", "super item key (audits, holder)")
	actor := fs.String("actor", "", "actor filter (audits)")
	action := fs.String("action", "", "action filter (audits)")
	_ = fs.Parse(args)

	q := "sessions"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		if strings.TrimSpace(*sessionID) == "" {
			fmt.Fprintln(os.Stderr, "missing -session or -db")
			os.Exit(2)
		}
		path = filepath.Join(*dataDir, "sessions", *sessionID, "index", "session.sqlite")
	}
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}

	idx, err := indexdb.OpenSQLite(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer idx.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	enc := json.NewEncoder(os.Stdout)

	switch q {
	case "sessions":
		rows, err := idx.Sessions(ctx)
		if err != nil {
			fail("query", err)
		}
		for _, r := range rows {
			_ = enc.Encode(r)
		}
	case "audits":
		if *limit <= 0 {
			*limit = 20
		}
		rows, err := idx.Audits(ctx, indexdb.AuditFilter{
			SessionID: *sessionID,
			Actor:     *actor,
			ItemKey:   *key,
			Action:    *action,
			Limit:     *limit,
		})
		if err != nil {
			fail("query", err)
		}
		for _, r := range rows {
			_ = enc.Encode(r)
		}
	case "holder":
		if *key == "" || *sessionID == "" {
			fmt.Fprintln(os.Stderr, "holder needs -session and -key")
			os.Exit(2)
		}
		id, ok, err := idx.LastHolder(ctx, *sessionID, *key)
		if err != nil {
			fail("query", err)
		}
		_ = enc.Encode(map[string]any{"key": *key, "holder": id, "held": ok})
	case "rejected":
		if *sessionID == "" {
			fmt.Fprintln(os.Stderr, "rejected needs -session")
			os.Exit(2)
		}
		counts, err := idx.RejectedEvents(ctx, *sessionID)
		if err != nil {
			fail("query", err)
		}
		kinds := make([]string, 0, len(counts))
		for k := range counts {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		for _, k := range kinds {
			fmt.Printf("%s %d\n", k, counts[k])
		}
	default:
		fmt.Fprintln(os.Stderr, "unknown query:", q, "(sessions|audits|holder|rejected)")
		os.Exit(2)
	}
}

func fail(what string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", what, err)
	os.Exit(1)
}
